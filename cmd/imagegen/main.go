// =============================================================================
// imagegen 主入口
// =============================================================================
// 图像生成路由服务与命令行工具
//
// 使用方法:
//
//	imagegen serve                          # 启动服务
//	imagegen serve --config config.yaml     # 指定配置文件
//	imagegen generate --prompt "a cat"      # 直接生成图片
//	imagegen models                         # 列出支持的模型
//	imagegen version                        # 显示版本信息
//	imagegen health                         # 健康检查
// =============================================================================

// @title imagegen API
// @version 1.0.0
// @description Unified image-generation routing layer over the BLT and GrsAI platforms.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Waym1ng/imagegen/config"
	"github.com/Waym1ng/imagegen/internal/telemetry"
	"github.com/Waym1ng/imagegen/llm/factory"
	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/skill"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	var code int
	switch os.Args[1] {
	case "serve":
		code = runServe(os.Args[2:])
	case "generate":
		code = runGenerate(os.Args[2:], os.Stdout)
	case "models":
		code = runModels(os.Args[2:], os.Stdout)
	case "version":
		printVersion(os.Stdout)
	case "health":
		code = runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		code = 1
	}
	os.Exit(code)
}

// loadConfig 加载并验证配置
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader().WithValidator((*config.Config).Validate)
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	return loader.Load()
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting imagegen",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("config_source", cfg.Source),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	srv := NewServer(cfg, logger, otelProviders)
	if err := srv.Start(); err != nil {
		logger.Error("Failed to start server", zap.Error(err))
		srv.Shutdown()
		return 1
	}

	srv.WaitForShutdown(context.Background())

	logger.Info("imagegen stopped")
	return 0
}

// =============================================================================
// 🎨 generate 命令
// =============================================================================

// stringList 可重复的字符串 flag
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func runGenerate(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	prompt := fs.String("prompt", "", "Text prompt (required)")
	model := fs.String("model", "", "Model name")
	provider := fs.String("provider", "", "Provider name: blt, grsai or auto")
	size := fs.String("size", "", "Image size such as 1024x1024")
	ratio := fs.String("ratio", "", "Aspect ratio such as 16:9")
	n := fs.Int("n", 0, "Number of images")
	timeout := fs.Duration("timeout", 0, "Overall timeout, 0 uses defaults.timeout")
	var images stringList
	fs.Var(&images, "image", "Reference image URL (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	inputs := map[string]any{image.KeyPrompt: *prompt}
	if *prompt == "" {
		delete(inputs, image.KeyPrompt)
	}
	setIf(inputs, image.KeyModel, *model)
	setIf(inputs, image.KeyProvider, *provider)
	setIf(inputs, image.KeyAspectRatio, *ratio)
	if *size != "" {
		inputs[image.KeySize] = *size
	} else if *ratio == "" && cfg.Defaults.Size != "" {
		inputs[image.KeySize] = cfg.Defaults.Size
	}
	if *n > 0 {
		inputs[image.KeyN] = *n
	}
	if len(images) > 0 {
		inputs[image.KeyImageURLs] = []string(images)
	}

	d := *timeout
	if d <= 0 {
		d = cfg.Defaults.Timeout.Duration()
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	s := skill.New(factory.NewImageRegistry(cfg, logger),
		skill.WithLogger(logger),
		skill.WithDefaultProvider(cfg.Defaults.Provider),
		skill.WithDefaultN(cfg.Defaults.N),
	)
	resp := s.Run(ctx, inputs)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode response: %v\n", err)
		return 1
	}
	if !resp.Success {
		return 1
	}
	return 0
}

func setIf(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// =============================================================================
// 📋 models 命令
// =============================================================================

func runModels(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	registry := factory.NewImageRegistry(cfg, nil)
	for _, name := range registry.List() {
		p, err := registry.Get(name, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			return 1
		}
		fmt.Fprintf(out, "%s (prefixes: %s)\n", p.Name(), strings.Join(factory.Prefixes(name), ", "))
		for _, m := range p.SupportedModels() {
			fmt.Fprintf(out, "  %s\n", m)
		}
	}
	return 0
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) int {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(strings.TrimRight(*addr, "/") + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		return 1
	}

	fmt.Println("OK")
	return 0
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(out io.Writer) {
	fmt.Fprintf(out, "imagegen %s\n", Version)
	fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
	fmt.Fprintf(out, "  Module:     %s\n", telemetry.Version())
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, `imagegen - unified image generation over BLT and GrsAI

Usage:
  imagegen <command> [options]

Commands:
  serve     Start the HTTP server
  generate  Generate images and print the result as JSON
  models    List providers and their models
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve', 'generate' and 'models':
  --config <path>   Path to configuration file (YAML)

Options for 'generate':
  --prompt <text>   Text prompt (required)
  --model <name>    Model name, e.g. nano-banana, sora-image
  --provider <p>    blt, grsai or auto
  --size <WxH>      Image size
  --ratio <W:H>     Aspect ratio
  --n <count>       Number of images
  --image <url>     Reference image URL, repeatable
  --timeout <d>     Overall timeout

Examples:
  imagegen serve --config /etc/imagegen/config.yaml
  imagegen generate --prompt "a cat in space" --model nano-banana --ratio 16:9
  imagegen models
  imagegen health --addr http://localhost:8080`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       encoding == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
