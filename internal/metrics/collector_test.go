package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.httpRequestDuration)
	assert.NotNil(t, collector.imageRequestsTotal)
	assert.NotNil(t, collector.imageRequestDuration)
	assert.NotNil(t, collector.imagesGenerated)
	assert.NotNil(t, collector.providerSelections)
}

func TestNewCollector_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() { NewCollector(nextTestNamespace(), nil) })
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("POST", "/api/v1/images/generations", 200, 100*time.Millisecond, 1024, 2048)
	collector.RecordHTTPRequest("POST", "/api/v1/images/generations", 201, 50*time.Millisecond, 512, 1024)
	collector.RecordHTTPRequest("POST", "/api/v1/images/generations", 502, 50*time.Millisecond, 512, 64)

	assert.Equal(t, 2, testutil.CollectAndCount(collector.httpRequestsTotal))
	assert.Equal(t, float64(2),
		testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("POST", "/api/v1/images/generations", "2xx")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("POST", "/api/v1/images/generations", "5xx")))
}

func TestCollector_RecordImageGeneration(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordImageGeneration("blt", "nano-banana", "success", 12*time.Second, 2)
	collector.RecordImageGeneration("blt", "nano-banana", "success", 8*time.Second, 1)
	collector.RecordImageGeneration("grsai", "sora-image", "failure", time.Second, 0)

	assert.Equal(t, float64(2),
		testutil.ToFloat64(collector.imageRequestsTotal.WithLabelValues("blt", "nano-banana", "success")))
	assert.Equal(t, float64(3),
		testutil.ToFloat64(collector.imagesGenerated.WithLabelValues("blt", "nano-banana")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(collector.imageRequestsTotal.WithLabelValues("grsai", "sora-image", "failure")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.imageRequestDuration))
}

func TestCollector_RecordProviderSelection(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordProviderSelection("blt", "auto")
	collector.RecordProviderSelection("grsai", "explicit")
	collector.RecordProviderSelection("blt", "auto")

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.providerSelections.WithLabelValues("blt", "auto")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.providerSelections))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordHTTPRequest("GET", "/health", 200, time.Millisecond, 0, 16)
			collector.RecordImageGeneration("blt", "flux", "success", time.Second, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(10), testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/health", "2xx")))
	assert.Equal(t, float64(10), testutil.ToFloat64(collector.imagesGenerated.WithLabelValues("blt", "flux")))
}

func TestCollector_MetricsRegistration(t *testing.T) {
	// 创建自定义 registry
	registry := prometheus.NewRegistry()

	// 创建 collector（会自动注册到默认 registry）
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	// 手动注册到自定义 registry
	registry.MustRegister(collector.imageRequestsTotal)
	registry.MustRegister(collector.imageRequestDuration)

	collector.RecordImageGeneration("grsai", "nano-banana-fast", "success", time.Second, 1)

	families, err := registry.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 2)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, "2xx", statusCode(204))
	assert.Equal(t, "3xx", statusCode(302))
	assert.Equal(t, "4xx", statusCode(429))
	assert.Equal(t, "5xx", statusCode(503))
	assert.Equal(t, "unknown", statusCode(100))
}
