package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Waym1ng/imagegen/api/handlers"
	"github.com/Waym1ng/imagegen/config"
	"github.com/Waym1ng/imagegen/internal/metrics"
	"github.com/Waym1ng/imagegen/internal/server"
	"github.com/Waym1ng/imagegen/internal/telemetry"
	"github.com/Waym1ng/imagegen/llm/factory"
	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/skill"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 imagegen 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// Handlers
	healthHandler *handlers.HealthHandler
	imageHandler  *handlers.ImageHandler

	registry         *image.Registry
	metricsCollector *metrics.Collector
	otelProviders    *telemetry.Providers

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("imagegen", s.logger)
	s.initHandlers()

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if s.cfg.Server.MetricsPort > 0 {
		if err := s.startMetricsServer(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Strings("providers", s.registry.List()),
	)
	return nil
}

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() {
	s.registry = factory.NewImageRegistry(s.cfg, s.logger)
	generator := skill.New(s.registry,
		skill.WithLogger(s.logger),
		skill.WithMetrics(s.metricsCollector),
		skill.WithDefaultProvider(s.cfg.Defaults.Provider),
		skill.WithDefaultN(s.cfg.Defaults.N),
	)

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck("provider_credentials", handlers.CredentialsCheck(map[string]string{
		"blt":   s.cfg.BLT.APIKey,
		"grsai": s.cfg.Grsai.APIKey,
	}))
	s.healthHandler.RegisterCheck("provider_registry", handlers.RegistryCheck(s.registry))
	s.imageHandler = handlers.NewImageHandler(generator, s.registry, s.logger)

	s.logger.Info("Handlers initialized")
}

// routes 注册路由并构建中间件链
func (s *Server) routes(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler.HandleLive)
	mux.HandleFunc("/healthz", s.healthHandler.HandleLive)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("/api/v1/images/generations", s.imageHandler.HandleGenerate)
	mux.HandleFunc("/api/v1/models", s.imageHandler.HandleModels)

	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version"}
	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		OTelTracing(),
		MetricsMiddleware(s.metricsCollector),
		SecurityHeaders(),
		RequestLogger(s.logger),
		RateLimiter(ctx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.logger),
	)
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

func (s *Server) startHTTPServer() error {
	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel

	s.httpManager = server.NewManager(
		s.routes(rateLimiterCtx),
		server.FromServerConfig("api", s.cfg.Server.HTTPPort, s.cfg.Server),
		s.logger,
	)
	return s.httpManager.Start()
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsManager = server.NewManager(
		mux,
		server.FromServerConfig("metrics", s.cfg.Server.MetricsPort, s.cfg.Server),
		s.logger,
	)
	return s.metricsManager.Start()
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown(ctx context.Context) {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown(ctx)
	}
	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")
	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 两个监听器并行关闭
	var g errgroup.Group
	for name, m := range map[string]*server.Manager{"HTTP": s.httpManager, "Metrics": s.metricsManager} {
		if m == nil {
			continue
		}
		g.Go(func() error {
			if err := m.Shutdown(ctx); err != nil {
				return fmt.Errorf("%s server shutdown: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Server shutdown error", zap.Error(err))
	}

	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
