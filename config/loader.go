// =============================================================================
// 📦 imagegen 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// 未指定路径时按 DefaultSearchPaths 顺序查找第一个存在的文件
// =============================================================================
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 imagegen 的完整配置结构
type Config struct {
	// BLT 柏拉图平台配置（BLT_API_KEY / BLT_BASE_URL）
	BLT ProviderConfig `yaml:"blt" env:"BLT"`

	// Grsai GrsAI 平台配置（GRSAI_API_KEY / GRSAI_BASE_URL）
	Grsai ProviderConfig `yaml:"grsai" env:"GRSAI"`

	// Defaults 请求默认值
	Defaults DefaultsConfig `yaml:"defaults" env:"-"`

	// Server HTTP 服务配置
	Server ServerConfig `yaml:"server" env:"IMAGEGEN_SERVER"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"IMAGEGEN_LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"IMAGEGEN_TELEMETRY"`

	// Source 实际加载的配置文件路径（未找到文件时为空）
	Source string `yaml:"-" env:"-"`
}

// ProviderConfig 单个图像平台的凭证与地址
type ProviderConfig struct {
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
}

// DefaultsConfig 请求默认值
type DefaultsConfig struct {
	// 默认 Provider，"auto" 表示按模型自动选择
	Provider string `yaml:"provider"`
	// 默认模型
	Model string `yaml:"model"`
	// 默认尺寸
	Size string `yaml:"size"`
	// 默认生成数量
	N int `yaml:"n"`
	// 单次请求超时（YAML 中可写 600 或 "10m"）
	Timeout Seconds `yaml:"timeout"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时（需覆盖上游生成耗时）
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 每个 IP 每秒请求数
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 突发请求上限
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// 允许访问的 API Key，为空时不启用认证
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// ⏱️ Seconds
// =============================================================================

// Seconds 以秒为单位的时长。YAML/环境变量中既可以写整数秒（600），
// 也可以写 Go duration 字符串（"10m"）。
type Seconds time.Duration

// Duration 返回 time.Duration
func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (s *Seconds) UnmarshalYAML(value *yaml.Node) error {
	d, err := parseSeconds(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*s = Seconds(d)
	return nil
}

// MarshalYAML 实现 yaml.Marshaler，输出整数秒
func (s Seconds) MarshalYAML() (any, error) {
	return int64(time.Duration(s) / time.Second), nil
}

func parseSeconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

var secondsType = reflect.TypeOf(Seconds(0))

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath  string
	searchPaths []string
	validators  []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		searchPaths: DefaultSearchPaths(),
		validators:  make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径（设置后不再查找候选路径）
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithSearchPaths 覆盖候选配置文件路径
func (l *Loader) WithSearchPaths(paths ...string) *Loader {
	l.searchPaths = paths
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 找到配置文件则从文件加载
	if path := l.resolvePath(); path != "" {
		loaded, err := l.loadFromFile(cfg, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		if loaded {
			cfg.Source = path
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// resolvePath 返回要读取的配置文件路径
func (l *Loader) resolvePath() string {
	if l.configPath != "" {
		return l.configPath
	}
	for _, p := range l.searchPaths {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// loadFromFile 从 YAML 文件加载配置，文件不存在时返回 false
func (l *Loader) loadFromFile(cfg *Config, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config file: %w", err)
	}

	return true, nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), "")
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := envTag
		if prefix != "" {
			envKey = prefix + "_" + envTag
		}

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch field.Type() {
		case reflect.TypeOf(time.Duration(0)):
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		case secondsType:
			d, err := parseSeconds(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		default:
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// DefaultSearchPaths 返回候选配置文件路径：
// 工作目录、skill 目录、可执行文件所在目录
func DefaultSearchPaths() []string {
	paths := []string{
		"config.yaml",
		filepath.Join("skills", "image_generation_master", "config.yaml"),
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "config.yaml"))
	}
	return paths
}

// LoadFromEnv 仅从默认值和环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().WithSearchPaths().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Defaults.N <= 0 {
		errs = append(errs, "defaults.n must be positive")
	}
	if c.Defaults.Timeout <= 0 {
		errs = append(errs, "defaults.timeout must be positive")
	}
	if c.Defaults.Model == "" {
		errs = append(errs, "defaults.model must not be empty")
	}
	if c.BLT.BaseURL == "" {
		errs = append(errs, "blt.base_url must not be empty")
	}
	if c.Grsai.BaseURL == "" {
		errs = append(errs, "grsai.base_url must not be empty")
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
