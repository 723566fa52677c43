package image

import (
	"context"
	"fmt"

	"github.com/Waym1ng/imagegen/types"
)

// 输入字段名
const (
	KeyPrompt      = "prompt"
	KeyModel       = "model"
	KeyProvider    = "provider"
	KeySize        = "size"
	KeyAspectRatio = "aspect_ratio"
	KeyN           = "n"
	KeyImageURLs   = "image_urls"
)

// GenerateRequest 统一的图像生成请求。构造后视为只读。
type GenerateRequest struct {
	Prompt      string         `json:"prompt"`
	Model       string         `json:"model,omitempty"`
	Provider    string         `json:"provider,omitempty"`
	Size        string         `json:"size,omitempty"`         // 1024x1024
	AspectRatio string         `json:"aspect_ratio,omitempty"` // 16:9
	N           int            `json:"n"`
	ImageURLs   []string       `json:"image_urls"`
	Extra       map[string]any `json:"-"`
}

// NewGenerateRequest 从调用方输入构造请求。
// prompt 缺失或不是字符串时返回 INVALID_REQUEST；未识别的字段保存在 Extra 中。
func NewGenerateRequest(inputs map[string]any) (*GenerateRequest, error) {
	raw, ok := inputs[KeyPrompt]
	if !ok || raw == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "prompt is required")
	}
	prompt, ok := raw.(string)
	if !ok {
		return nil, types.Errorf(types.ErrInvalidRequest, "prompt must be a string, got %T", raw)
	}

	req := &GenerateRequest{
		Prompt:    prompt,
		N:         1,
		ImageURLs: []string{},
		Extra:     make(map[string]any),
	}

	var err error
	if req.Model, err = optionalString(inputs, KeyModel); err != nil {
		return nil, err
	}
	if req.Provider, err = optionalString(inputs, KeyProvider); err != nil {
		return nil, err
	}
	if req.Size, err = optionalString(inputs, KeySize); err != nil {
		return nil, err
	}
	if req.AspectRatio, err = optionalString(inputs, KeyAspectRatio); err != nil {
		return nil, err
	}
	if v, ok := inputs[KeyN]; ok && v != nil {
		n, err := toInt(v)
		if err != nil {
			return nil, types.Errorf(types.ErrInvalidRequest, "n: %v", err)
		}
		req.N = n
	}
	if v, ok := inputs[KeyImageURLs]; ok && v != nil {
		urls, err := toStrings(v)
		if err != nil {
			return nil, types.Errorf(types.ErrInvalidRequest, "image_urls: %v", err)
		}
		req.ImageURLs = urls
	}

	for k, v := range inputs {
		switch k {
		case KeyPrompt, KeyModel, KeyProvider, KeySize, KeyAspectRatio, KeyN, KeyImageURLs:
		default:
			req.Extra[k] = v
		}
	}

	return req, nil
}

// Result 统一的图像生成结果
type Result struct {
	Success  bool     `json:"success"`
	Images   []string `json:"images"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Message  string   `json:"message,omitempty"`

	// Code 失败原因的错误码，不返回给调用方，HTTP 层据此选择状态码
	Code types.ErrorCode `json:"-"`

	// RawResponse 上游原始响应，仅用于诊断，不返回给调用方
	RawResponse map[string]any `json:"-"`
}

// Failed 构造失败结果
func Failed(provider, model, message string) *Result {
	return &Result{
		Success:  false,
		Images:   []string{},
		Provider: provider,
		Model:    model,
		Message:  message,
	}
}

// FailedWithCode 构造带错误码的失败结果
func FailedWithCode(provider, model, message string, code types.ErrorCode) *Result {
	r := Failed(provider, model, message)
	r.Code = code
	return r
}

// Provider 图像平台接口。
// Generate 不返回 error，也不允许 panic 逃逸：任何失败都转为 Success=false 的 Result。
type Provider interface {
	// Name 返回平台名称（小写）
	Name() string

	// Generate 生成图片
	Generate(ctx context.Context, req *GenerateRequest) *Result

	// SupportedModels 返回平台能处理的模型名
	SupportedModels() []string
}

// Constructor 创建 Provider 实例
type Constructor func() (Provider, error)

func optionalString(inputs map[string]any, key string) (string, error) {
	v, ok := inputs[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", types.Errorf(types.ErrInvalidRequest, "%s must be a string, got %T", key, v)
	}
	return s, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		// JSON 解码后的数字
		if n != float64(int(n)) {
			return 0, fmt.Errorf("must be an integer, got %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("must be an integer, got %T", v)
	}
}

func toStrings(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d must be a string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a list of strings, got %T", v)
	}
}
