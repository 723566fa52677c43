// =============================================================================
// Package skill — 图像生成统一入口
// =============================================================================
// 接收调用方的 map 输入，构造请求、选择平台、生成图片，
// 并把结果压平为五字段的 Response。任何失败都不会以 error 或 panic 逃出。
//
// Usage:
//
//	s := skill.New(factory.NewImageRegistry(cfg, logger), skill.WithLogger(logger))
//	resp := s.Run(ctx, map[string]any{"prompt": "a cat", "model": "nano-banana"})
//
// =============================================================================
package skill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Waym1ng/imagegen/internal/ctxkeys"
	"github.com/Waym1ng/imagegen/internal/telemetry"
	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/types"
)

const errorPrefix = "skill execution error: "

// MetricsRecorder 图像生成指标记录器
type MetricsRecorder interface {
	RecordImageGeneration(provider, model, status string, duration time.Duration, images int)
	RecordProviderSelection(provider, mode string)
}

// Option configures the Skill created by New.
type Option func(*Skill)

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Skill) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Skill) { s.metrics = m }
}

// WithTracer overrides the tracer used for generation spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Skill) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithDefaultProvider sets the provider used when the input names none.
func WithDefaultProvider(name string) Option {
	return func(s *Skill) { s.defaultProvider = name }
}

// WithDefaultN sets the image count used when the input gives none.
func WithDefaultN(n int) Option {
	return func(s *Skill) { s.defaultN = n }
}

// Skill 图像生成入口
type Skill struct {
	registry        *image.Registry
	logger          *zap.Logger
	metrics         MetricsRecorder
	tracer          trace.Tracer
	defaultProvider string
	defaultN        int
}

// New 创建 Skill
func New(registry *image.Registry, opts ...Option) *Skill {
	s := &Skill{
		registry: registry,
		logger:   zap.NewNop(),
		tracer:   telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "skill"))
	return s
}

// Run 执行一次图像生成
func (s *Skill) Run(ctx context.Context, inputs map[string]any) (resp Response) {
	start := time.Now()
	requestID, ok := ctxkeys.RequestID(ctx)
	if !ok {
		requestID = uuid.NewString()
	}

	ctx, span := s.tracer.Start(ctx, "imagegen.generate",
		trace.WithAttributes(attribute.String("imagegen.request_id", requestID)))
	defer span.End()

	logger := s.logger.With(zap.String("request_id", requestID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during skill execution", zap.Any("recover", r), zap.Stack("stack"))
			resp = failure(inputs, fmt.Errorf("panic: %v", r))
			span.SetStatus(codes.Error, resp.Message)
		}
	}()

	req, err := image.NewGenerateRequest(s.applyDefaults(inputs))
	if err != nil {
		logger.Warn("invalid request", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return failure(inputs, err)
	}

	provider, err := s.registry.Get(req.Provider, req.Model)
	if err != nil {
		fields := []zap.Field{
			zap.String("provider", req.Provider),
			zap.String("model", req.Model),
			zap.Error(err),
		}
		// 没有任何 Provider 是部署问题，不是调用方的问题
		if types.IsErrorCode(err, types.ErrNoProviders) {
			logger.Error("provider selection failed", fields...)
		} else {
			logger.Warn("provider selection failed", fields...)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return failure(inputs, err)
	}

	mode := lo.Ternary(req.Provider == "" || strings.EqualFold(req.Provider, image.AutoProvider), "auto", "explicit")
	if s.metrics != nil {
		s.metrics.RecordProviderSelection(provider.Name(), mode)
	}
	span.SetAttributes(
		attribute.String("imagegen.provider", provider.Name()),
		attribute.String("imagegen.model", req.Model),
		attribute.String("imagegen.selection", mode),
	)

	logger.Debug("dispatching image generation",
		zap.String("provider", provider.Name()),
		zap.String("model", req.Model),
		zap.String("selection", mode),
		zap.Int("n", req.N))

	result := provider.Generate(ctx, req)
	if result == nil {
		result = image.FailedWithCode(provider.Name(), req.Model, "provider returned no result", types.ErrInternalError)
	}

	duration := time.Since(start)
	status := lo.Ternary(result.Success, "success", "failure")
	if s.metrics != nil {
		s.metrics.RecordImageGeneration(provider.Name(), metricModel(provider, req.Model), status, duration, len(result.Images))
	}
	span.SetAttributes(attribute.Int("imagegen.images", len(result.Images)))

	if result.Success {
		logger.Info("image generation succeeded",
			zap.String("provider", result.Provider),
			zap.String("model", result.Model),
			zap.Int("images", len(result.Images)),
			zap.Duration("duration", duration))
	} else {
		span.SetStatus(codes.Error, result.Message)
		logger.Warn("image generation failed",
			zap.String("provider", result.Provider),
			zap.String("model", result.Model),
			zap.String("message", result.Message),
			zap.Duration("duration", duration))
	}

	return FromResult(result)
}

// RunSync 在 context.Background() 上执行 Run，供同步调用方使用
func (s *Skill) RunSync(inputs map[string]any) Response {
	return s.Run(context.Background(), inputs)
}

// applyDefaults 在调用方未给出 provider / n 时填入默认值，不修改原输入
func (s *Skill) applyDefaults(inputs map[string]any) map[string]any {
	needProvider := s.defaultProvider != "" && inputs[image.KeyProvider] == nil
	needN := s.defaultN > 0 && inputs[image.KeyN] == nil
	if !needProvider && !needN {
		return inputs
	}

	out := make(map[string]any, len(inputs)+2)
	for k, v := range inputs {
		out[k] = v
	}
	if needProvider {
		out[image.KeyProvider] = s.defaultProvider
	}
	if needN {
		out[image.KeyN] = s.defaultN
	}
	return out
}

// metricModel 返回指标使用的 model 标签。
// 只有平台支持的模型名原样使用，其余归为 "other"，避免调用方输入撑大时间序列。
func metricModel(provider image.Provider, model string) string {
	if model == "" {
		return "default"
	}
	if lo.Contains(provider.SupportedModels(), model) {
		return model
	}
	return "other"
}

// failure 构造失败响应，provider / model 取自原始输入（仅当是字符串时）
func failure(inputs map[string]any, err error) Response {
	provider, _ := inputs[image.KeyProvider].(string)
	model, _ := inputs[image.KeyModel].(string)
	code := types.GetErrorCode(err)
	if code == "" {
		code = types.ErrInternalError
	}
	return Response{
		Success:  false,
		Images:   []string{},
		Provider: provider,
		Model:    model,
		Message:  errorPrefix + err.Error(),
		Code:     code,
	}
}
