// Package blt 实现柏拉图平台（OpenAI images 兼容网关）的图像 Provider。
package blt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/types"
)

const (
	// Name Provider 名称
	Name = "blt"
	// GenerationsPath 生成接口路径
	GenerationsPath = "/v1/images/generations"

	errorPrefix    = "blt provider error: "
	noImageDataMsg = "API response contained no image data"
)

// Prefixes 自动选择时归属本平台的模型名前缀（按优先级）
var Prefixes = []string{"nano", "doubao", "flux", "gpt-4o-image", "sora_image"}

// passThroughKeys 从请求 Extra 透传给适配器的字段
var passThroughKeys = []string{"response_format", "sequential_image_generation", "stream", "watermark", "sync_mode"}

// Provider 柏拉图平台 Provider
type Provider struct {
	cfg    image.ProviderConfig
	client *image.Client
	logger *zap.Logger
}

// NewProvider 创建柏拉图 Provider
func NewProvider(cfg image.ProviderConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.WithDefaults("https://api.bltcy.ai")
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

	payload, err := BuildRequest(p.canonicalPayload(req))
	if err != nil {
		return p.fail(req.Model, err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + GenerationsPath
	body, err := p.client.PostJSON(ctx, url, payload)
	if err != nil {
		return p.fail(req.Model, err)
	}

	result = p.parseResponse(body, req.Model)
	if !result.Success {
		p.logger.Warn("generation failed", zap.String("model", req.Model), zap.String("message", result.Message))
	}
	return result
}

// canonicalPayload 构造适配器的统一输入
func (p *Provider) canonicalPayload(req *image.GenerateRequest) map[string]any {
	size, ratio := image.NormalizeSizeAndRatio(req.Size, req.AspectRatio)
	canonical := map[string]any{
		"model":        lo.Ternary(req.Model != "", req.Model, p.cfg.Model),
		"prompt":       req.Prompt,
		"size":         size,
		"aspect_ratio": ratio,
		"n":            req.N,
	}
	if len(req.ImageURLs) > 0 {
		canonical["image"] = req.ImageURLs
	}
	for _, k := range passThroughKeys {
		if v, ok := req.Extra[k]; ok {
			canonical[k] = v
		}
	}
	return canonical
}

// parseResponse 从 data[].url 提取图片地址
func (p *Provider) parseResponse(body []byte, model string) *image.Result {
	if !gjson.ValidBytes(body) {
		return p.fail(model, types.NewError(types.ErrParse, "response is not valid JSON").WithProvider(Name))
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return p.fail(model, types.NewError(types.ErrParse, "response is not a JSON object").WithCause(err).WithProvider(Name))
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() || len(data.Array()) == 0 {
		return image.FailedWithCode(Name, model, noImageDataMsg, types.ErrUpstreamError)
	}

	urls := lo.Filter(
		lo.Map(data.Array(), func(item gjson.Result, _ int) string { return item.Get("url").String() }),
		func(u string, _ int) bool { return u != "" },
	)

	return &image.Result{
		Success:     true,
		Images:      urls,
		Provider:    Name,
		Model:       model,
		RawResponse: raw,
	}
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
