package blt

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/Waym1ng/imagegen/types"
)

// Adapter 把规范化请求转换为特定模型家族的请求体
type Adapter interface {
	BuildPayload(req map[string]any) map[string]any
}

// AdapterFunc 函数形式的 Adapter
type AdapterFunc func(req map[string]any) map[string]any

// BuildPayload 实现 Adapter
func (f AdapterFunc) BuildPayload(req map[string]any) map[string]any { return f(req) }

// adapters 模型名到适配器；同一家族的模型共享一个适配器值
var adapters = map[string]Adapter{}

func register(a Adapter, names ...string) {
	for _, name := range names {
		adapters[name] = a
	}
}

func init() {
	register(AdapterFunc(imagePairPayload), "nano-banana", "nano-banana-hd", "nano-banana-2")
	register(AdapterFunc(sequentialPayload), "doubao-seedream-4-0-250828", "doubao-seedream-4-5-251128")
	register(AdapterFunc(sizeBasedPayload), "gpt-4o-image", "gpt-4o-image-vip", "sora_image", "sora_image-vip", "gpt-image-1")
	register(AdapterFunc(fluxKontextPayload), "flux-kontext-pro", "flux-kontext-max")
	register(AdapterFunc(fluxPayload), "flux", "flux-dev", "flux-pro", "flux-pro-max")
}

// BuildRequest 按 model 字段选择适配器并生成请求体。
// 只做精确匹配；model 缺失返回 INVALID_REQUEST，未注册返回 MODEL_NOT_FOUND。
func BuildRequest(req map[string]any) (map[string]any, error) {
	model, _ := req["model"].(string)
	if model == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "request must contain a model field")
	}

	adapter, ok := adapters[model]
	if !ok {
		return nil, types.Errorf(types.ErrModelNotFound,
			"no adapter for model %q, supported models: %s", model, strings.Join(SupportedModels(), ", "))
	}

	return adapter.BuildPayload(req), nil
}

// SupportedModels 返回所有已注册的模型名（排序）
func SupportedModels() []string {
	names := lo.Keys(adapters)
	sort.Strings(names)
	return names
}

// --- 模型家族 ---

// 参考图 + 可选比例
func imagePairPayload(req map[string]any) map[string]any {
	payload := map[string]any{
		"model":           req["model"],
		"prompt":          req["prompt"],
		"response_format": valueOr(req, "response_format", "url"),
		"image":           valueOr(req, "image", []string{}),
	}
	if ratio := explicitRatio(req); ratio != "" {
		payload["aspect_ratio"] = ratio
	}
	return payload
}

// 豆包组图：比例写进 prompt，尺寸固定 2K
func sequentialPayload(req map[string]any) map[string]any {
	prompt, _ := req["prompt"].(string)
	if ratio := explicitRatio(req); ratio != "" {
		prompt = prompt + " 比例: " + ratio
	}
	return map[string]any{
		"model":                       req["model"],
		"prompt":                      prompt,
		"image":                       valueOr(req, "image", []string{}),
		"sequential_image_generation": valueOr(req, "sequential_image_generation", "auto"),
		"response_format":             valueOr(req, "response_format", "url"),
		"size":                        "2K",
		"stream":                      valueOr(req, "stream", false),
		"watermark":                   valueOr(req, "watermark", false),
		"n":                           valueOr(req, "n", 1),
	}
}

func sizeBasedPayload(req map[string]any) map[string]any {
	return map[string]any{
		"size":      valueOr(req, "size", "1024x1024"),
		"prompt":    req["prompt"],
		"sync_mode": valueOr(req, "sync_mode", false),
		"model":     req["model"],
		"n":         valueOr(req, "n", 1),
		"image":     valueOr(req, "image", []string{}),
	}
}

func fluxKontextPayload(req map[string]any) map[string]any {
	return map[string]any{
		"model":           req["model"],
		"prompt":          req["prompt"],
		"size":            fluxSize(req),
		"response_format": valueOr(req, "response_format", "url"),
		"n":               valueOr(req, "n", 1),
		"image":           valueOr(req, "image", []string{}),
	}
}

func fluxPayload(req map[string]any) map[string]any {
	return map[string]any{
		"model":  req["model"],
		"prompt": req["prompt"],
		"size":   fluxSize(req),
	}
}

// fluxRatioSizes flux 只认 size，这里仅覆盖五种常用比例
var fluxRatioSizes = map[string]string{
	"1:1":  "1024x1024",
	"16:9": "1366x768",
	"9:16": "768x1366",
	"4:3":  "1024x768",
	"3:4":  "768x1024",
}

func fluxSize(req map[string]any) string {
	if size, _ := req["size"].(string); size != "" {
		return size
	}
	ratio, _ := req["aspect_ratio"].(string)
	return lo.ValueOr(fluxRatioSizes, ratio, "1024x1024")
}

func valueOr(req map[string]any, key string, fallback any) any {
	return lo.ValueOr(req, key, fallback)
}

// explicitRatio 返回非空且不是 "auto" 的 aspect_ratio
func explicitRatio(req map[string]any) string {
	ratio, _ := req["aspect_ratio"].(string)
	return lo.Ternary(ratio == "auto", "", ratio)
}
