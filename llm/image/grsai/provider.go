// Package grsai 实现 GrsAI 绘图平台的图像 Provider。
// 平台以 SSE 形式返回进度，只取最后一个有效的数据帧作为结果。
package grsai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/types"
)

// Name Provider 名称
const Name = "grsai"

const errorPrefix = "grsai provider error: "

// Prefixes 自动选择时归属本平台的模型名前缀（按优先级）
var Prefixes = []string{"sora-image", "gpt-image", "nano-banana-fast", "nano-banana-pro"}

// Provider GrsAI 平台 Provider
type Provider struct {
	cfg    image.ProviderConfig
	client *image.Client
	logger *zap.Logger
}

// NewProvider 创建 GrsAI Provider
func NewProvider(cfg image.ProviderConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.WithDefaults("https://api.grsai.com")
	logger = logger.With(zap.String("component", "image_provider"), zap.String("provider", Name))

	return &Provider{
		cfg:    cfg,
		client: image.NewClient(Name, cfg.APIKey, cfg.Timeout, logger),
		logger: logger,
	}
}

func (p *Provider) Name() string { return Name }

func (p *Provider) SupportedModels() []string { return SupportedModels() }

// Generate 生成图片。任何错误和 panic 都转换为失败结果。
func (p *Provider) Generate(ctx context.Context, req *image.GenerateRequest) (result *image.Result) {
	if req == nil {
		return p.fail("", types.NewError(types.ErrInvalidRequest, "request is nil"))
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic during generation", zap.Any("recover", r))
			result = image.FailedWithCode(Name, req.Model, fmt.Sprintf("%s%v", errorPrefix, r), types.ErrInternalError)
		}
	}()

	model := lo.Ternary(req.Model != "", req.Model, p.cfg.Model)
	endpoint, err := EndpointForModel(model)
	if err != nil {
		return p.fail(req.Model, err)
	}

	payload, err := p.buildPayload(req, model)
	if err != nil {
		return p.fail(req.Model, err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + string(endpoint)
	body, err := p.client.PostJSON(ctx, url, payload)
	if err != nil {
		return p.fail(req.Model, err)
	}

	resp, err := ParseSSE(body)
	if err != nil {
		return p.fail(req.Model, err)
	}

	result = p.parseResult(resp, model)
	if !result.Success {
		p.logger.Warn("generation failed", zap.String("model", model), zap.String("message", result.Message))
	}
	return result
}

func (p *Provider) buildPayload(req *image.GenerateRequest, model string) (map[string]any, error) {
	size, ratio := image.NormalizeSizeAndRatio(req.Size, req.AspectRatio)

	var payload map[string]any
	switch {
	case IsNanoBananaEndpoint(model):
		payload = map[string]any{
			"model":        model,
			"prompt":       req.Prompt,
			"aspectRatio":  ratio,
			"shutProgress": true,
		}
	case IsCompletionsEndpoint(model):
		payload = map[string]any{
			"model":        model,
			"prompt":       req.Prompt,
			"size":         size,
			"variants":     req.N,
			"shutProgress": true,
		}
	default:
		return nil, types.Errorf(types.ErrUnsupportedEndpoint, "unknown endpoint for model %q", model)
	}

	if len(req.ImageURLs) > 0 {
		payload["urls"] = req.ImageURLs
	}
	return payload, nil
}

// parseResult 按任务状态归一化结果
func (p *Provider) parseResult(resp map[string]any, model string) *image.Result {
	status, _ := resp["status"].(string)

	switch {
	case status == "succeeded":
		return &image.Result{
			Success:     true,
			Images:      extractURLs(resp),
			Provider:    Name,
			Model:       model,
			RawResponse: resp,
		}

	case status == "failed":
		msg := fmt.Sprintf("API failed: %s %s", field(resp, "failure_reason"), field(resp, "error"))
		return image.FailedWithCode(Name, model, msg, types.ErrUpstreamError)

	case isCode(resp["code"], -1):
		msg := "unknown error"
		if _, ok := resp["msg"]; ok {
			msg = field(resp, "msg")
		}
		return image.FailedWithCode(Name, model, msg, types.ErrUpstreamError)

	default:
		if _, ok := resp["status"]; !ok || resp["status"] == nil {
			status = "<missing>"
		} else if status == "" {
			status = lo.Ternary(field(resp, "status") != "", field(resp, "status"), `""`)
		}
		return image.FailedWithCode(Name, model, "unknown status: "+status, types.ErrUpstreamError)
	}
}

// extractURLs 优先读 results[].url，没有 results 时读单个 url 字段
func extractURLs(resp map[string]any) []string {
	if results, ok := resp["results"].([]any); ok && len(results) > 0 {
		return lo.FilterMap(results, func(r any, _ int) (string, bool) {
			item, _ := r.(map[string]any)
			url, _ := item["url"].(string)
			return url, url != ""
		})
	}
	if url, _ := resp["url"].(string); url != "" {
		return []string{url}
	}
	return []string{}
}

// field 把字段值转为文本，缺失或 null 时为空串
func field(resp map[string]any, key string) string {
	switch v := resp[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func isCode(v any, want float64) bool {
	n, ok := v.(float64)
	return ok && n == want
}

// fail 把错误转为失败结果，非 types.Error 视为内部错误
func (p *Provider) fail(model string, err error) *image.Result {
	p.logger.Warn("generation failed",
		zap.String("model", model),
		zap.Bool("retryable", types.IsRetryable(err)),
		zap.Error(err))
	code := types.GetErrorCode(err)
	if code == "" {
		code = types.ErrInternalError
	}
	return image.FailedWithCode(Name, model, errorPrefix+err.Error(), code)
}
