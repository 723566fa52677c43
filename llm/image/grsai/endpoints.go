package grsai

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/Waym1ng/imagegen/types"
)

// Endpoint GrsAI 绘图接口路径
type Endpoint string

const (
	EndpointCompletions Endpoint = "/v1/draw/completions"
	EndpointNanoBanana  Endpoint = "/v1/draw/nano-banana"
)

// modelEndpoints 模型到接口的映射
var modelEndpoints = map[string]Endpoint{
	"sora-image":    EndpointCompletions,
	"gpt-image-1.5": EndpointCompletions,

	"nano-banana-fast":       EndpointNanoBanana,
	"nano-banana":            EndpointNanoBanana,
	"nano-banana-pro":        EndpointNanoBanana,
	"nano-banana-pro-vt":     EndpointNanoBanana,
	"nano-banana-pro-cl":     EndpointNanoBanana,
	"nano-banana-pro-vip":    EndpointNanoBanana,
	"nano-banana-pro-4k-vip": EndpointNanoBanana,
}

// EndpointForModel 返回模型对应的接口，未知模型返回 MODEL_NOT_FOUND
func EndpointForModel(model string) (Endpoint, error) {
	ep, ok := modelEndpoints[model]
	if !ok {
		return "", types.Errorf(types.ErrModelNotFound,
			"unsupported model %q, supported models: %s", model, strings.Join(SupportedModels(), ", "))
	}
	return ep, nil
}

// IsNanoBananaEndpoint 模型是否走 nano-banana 接口
func IsNanoBananaEndpoint(model string) bool {
	return modelEndpoints[model] == EndpointNanoBanana
}

// IsCompletionsEndpoint 模型是否走 completions 接口
func IsCompletionsEndpoint(model string) bool {
	return modelEndpoints[model] == EndpointCompletions
}

// SupportedModels 返回所有支持的模型名（排序）
func SupportedModels() []string {
	names := lo.Keys(modelEndpoints)
	sort.Strings(names)
	return names
}
