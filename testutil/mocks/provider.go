// MockProvider 图像 Provider 的测试模拟实现。
//
// 支持固定结果、失败注入、panic 注入与调用记录。
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/types"
)

// --- MockProvider 结构 ---

// MockProvider 是 image.Provider 的模拟实现
type MockProvider struct {
	mu sync.RWMutex

	name   string
	models []string

	// 响应配置
	images  []string
	message string
	code    types.ErrorCode
	fail    bool
	panicV  any

	generateFunc func(ctx context.Context, req *image.GenerateRequest) *image.Result

	// 行为控制
	delay time.Duration

	// 调用记录
	calls []*image.GenerateRequest
}

// --- 构造函数和 Builder 方法 ---

// NewMockProvider 创建新的 MockProvider
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:   name,
		images: []string{"https://mock.example/" + name + ".png"},
	}
}

// WithImages 设置成功时返回的图片
func (m *MockProvider) WithImages(images ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = images
	return m
}

// WithFailure 设置返回失败结果
func (m *MockProvider) WithFailure(message string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = true
	m.message = message
	return m
}

// WithFailureCode 设置返回带错误码的失败结果
func (m *MockProvider) WithFailureCode(message string, code types.ErrorCode) *MockProvider {
	m.WithFailure(message)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.code = code
	return m
}

// WithPanic 设置 Generate 时 panic
func (m *MockProvider) WithPanic(v any) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicV = v
	return m
}

// WithModels 设置 SupportedModels 返回值
func (m *MockProvider) WithModels(models ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = models
	return m
}

// WithDelay 设置响应延迟，期间响应 ctx 取消
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithGenerateFunc 设置自定义 Generate 函数
func (m *MockProvider) WithGenerateFunc(fn func(ctx context.Context, req *image.GenerateRequest) *image.Result) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateFunc = fn
	return m
}

// Constructor 返回注册到 image.Registry 的构造函数，始终返回同一个实例
func (m *MockProvider) Constructor() image.Constructor {
	return func() (image.Provider, error) { return m, nil }
}

// --- Provider 接口实现 ---

// Name 返回 Provider 名称
func (m *MockProvider) Name() string {
	return m.name
}

// SupportedModels 返回模型列表
func (m *MockProvider) SupportedModels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.models...)
}

// Generate 返回预设结果
func (m *MockProvider) Generate(ctx context.Context, req *image.GenerateRequest) *image.Result {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	fn, delay, panicV := m.generateFunc, m.delay, m.panicV
	fail, message, code := m.fail, m.message, m.code
	images := append([]string{}, m.images...)
	m.mu.Unlock()

	if panicV != nil {
		panic(panicV)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return image.FailedWithCode(m.name, req.Model, ctx.Err().Error(), types.ErrUpstreamTimeout)
		}
	}

	if fn != nil {
		return fn(ctx, req)
	}

	if fail {
		return image.FailedWithCode(m.name, req.Model, message, code)
	}
	return &image.Result{
		Success:  true,
		Images:   images,
		Provider: m.name,
		Model:    req.Model,
	}
}

// --- 调用记录 ---

// Calls 返回所有调用过的请求
func (m *MockProvider) Calls() []*image.GenerateRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*image.GenerateRequest{}, m.calls...)
}

// CallCount 返回调用次数
func (m *MockProvider) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// LastCall 返回最后一次调用的请求
func (m *MockProvider) LastCall() *image.GenerateRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// Reset 清空调用记录
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var _ image.Provider = (*MockProvider)(nil)
