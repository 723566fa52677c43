package mocks

import (
	"sync"
	"time"
)

// GenerationRecord 一次 RecordImageGeneration 调用
type GenerationRecord struct {
	Provider string
	Model    string
	Status   string
	Duration time.Duration
	Images   int
}

// MockMetrics 记录指标调用，实现 skill.MetricsRecorder
type MockMetrics struct {
	mu          sync.Mutex
	Generations []GenerationRecord
	Selections  map[string]int // "provider/mode" -> count
}

// NewMockMetrics 创建 MockMetrics
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{Selections: make(map[string]int)}
}

// RecordImageGeneration 记录生成
func (m *MockMetrics) RecordImageGeneration(provider, model, status string, duration time.Duration, images int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Generations = append(m.Generations, GenerationRecord{provider, model, status, duration, images})
}

// RecordProviderSelection 记录选择
func (m *MockMetrics) RecordProviderSelection(provider, mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Selections[provider+"/"+mode]++
}
