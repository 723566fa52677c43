package skill

import (
	"encoding/json"

	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/types"
)

// Response 返回给调用方的五字段结果。
// JSON 中 provider / model / message 为空时输出 null。
type Response struct {
	Success  bool     `json:"success"`
	Images   []string `json:"images"`
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
	Message  string   `json:"message"`

	// Code 失败时的错误码，不参与序列化
	Code types.ErrorCode `json:"-"`
}

// FromResult 压平 Provider 结果，丢弃原始响应
func FromResult(r *image.Result) Response {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return Response{
		Success:  r.Success,
		Images:   images,
		Provider: r.Provider,
		Model:    r.Model,
		Message:  r.Message,
		Code:     r.Code,
	}
}

// Map 转换为 map 形式
func (r Response) Map() map[string]any {
	return map[string]any{
		"success":  r.Success,
		"images":   r.images(),
		"provider": nullable(r.Provider),
		"model":    nullable(r.Model),
		"message":  nullable(r.Message),
	}
}

// MarshalJSON 实现 json.Marshaler
func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success  bool     `json:"success"`
		Images   []string `json:"images"`
		Provider *string  `json:"provider"`
		Model    *string  `json:"model"`
		Message  *string  `json:"message"`
	}{
		Success:  r.Success,
		Images:   r.images(),
		Provider: nullablePtr(r.Provider),
		Model:    nullablePtr(r.Model),
		Message:  nullablePtr(r.Message),
	})
}

func (r Response) images() []string {
	if r.Images == nil {
		return []string{}
	}
	return r.Images
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullablePtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
