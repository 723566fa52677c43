// =============================================================================
// 📦 测试数据工厂 - 上游平台响应
// =============================================================================
// 提供柏拉图（JSON）与 GrsAI（SSE）的预定义响应体，用于 httptest 服务
// =============================================================================
package fixtures

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// 🎯 柏拉图响应
// =============================================================================

// BLTImages 返回包含给定 URL 的 data 列表响应
func BLTImages(urls ...string) string {
	data := make([]map[string]any, 0, len(urls))
	for _, u := range urls {
		data = append(data, map[string]any{"url": u, "revised_prompt": ""})
	}
	return mustJSON(map[string]any{"created": 1735689600, "data": data})
}

// BLTEmpty 返回 data 为空的响应
func BLTEmpty() string {
	return `{"created":1735689600,"data":[]}`
}

// BLTError 返回 OpenAI 风格的错误体
func BLTError(message, errType string) string {
	return mustJSON(map[string]any{"error": map[string]any{"message": message, "type": errType}})
}

// =============================================================================
// 📡 GrsAI SSE 响应
// =============================================================================

// SSE 将多个 JSON 帧拼成 SSE 响应体，末尾追加 [DONE]
func SSE(frames ...string) string {
	var b strings.Builder
	for _, f := range frames {
		fmt.Fprintf(&b, "data: %s\n\n", f)
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

// GrsaiProgress 进度帧
func GrsaiProgress(progress int) string {
	return mustJSON(map[string]any{"id": "task-1", "status": "running", "progress": progress})
}

// GrsaiSucceeded 成功帧（results 数组）
func GrsaiSucceeded(urls ...string) string {
	results := make([]map[string]any, 0, len(urls))
	for _, u := range urls {
		results = append(results, map[string]any{"url": u, "content": ""})
	}
	return mustJSON(map[string]any{"id": "task-1", "status": "succeeded", "progress": 100, "results": results})
}

// GrsaiSucceededSingle 成功帧（单个 url 字段）
func GrsaiSucceededSingle(url string) string {
	return mustJSON(map[string]any{"id": "task-1", "status": "succeeded", "progress": 100, "url": url})
}

// GrsaiFailed 失败帧
func GrsaiFailed(reason, errMsg string) string {
	return mustJSON(map[string]any{"id": "task-1", "status": "failed", "failure_reason": reason, "error": errMsg})
}

// GrsaiCodeError 平台级错误（code == -1）
func GrsaiCodeError(msg string) string {
	return mustJSON(map[string]any{"code": -1, "msg": msg})
}

// GrsaiGeneration 典型的完整 SSE 流：两个进度帧加一个成功帧
func GrsaiGeneration(urls ...string) string {
	return SSE(GrsaiProgress(10), GrsaiProgress(60), GrsaiSucceeded(urls...))
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
