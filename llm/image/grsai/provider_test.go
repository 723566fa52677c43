package grsai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/types"
)

type capture struct {
	path string
	body map[string]any
}

func newTestProvider(t *testing.T, response string) (*Provider, *capture) {
	t.Helper()
	c := &capture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		assert.Equal(t, "Bearer sk-grsai", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c.body))
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	p := NewProvider(image.ProviderConfig{
		APIKey:  "sk-grsai",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, nil)
	return p, c
}

func request(t *testing.T, inputs map[string]any) *image.GenerateRequest {
	t.Helper()
	req, err := image.NewGenerateRequest(inputs)
	require.NoError(t, err)
	return req
}

func TestProvider_Generate_NanoBanana(t *testing.T) {
	p, c := newTestProvider(t,
		"data: {\"status\":\"running\"}\n\ndata: {\"status\":\"succeeded\",\"results\":[{\"url\":\"u1\"},{\"url\":\"\"},{\"url\":\"u2\"}]}\n\ndata: [DONE]\n")

	result := p.Generate(context.Background(), request(t, map[string]any{
		"prompt":       "a cat",
		"model":        "nano-banana-pro",
		"aspect_ratio": "16:9",
		"image_urls":   []string{"https://ref/1.png"},
	}))

	require.True(t, result.Success, result.Message)
	assert.Equal(t, []string{"u1", "u2"}, result.Images)
	assert.Equal(t, "grsai", result.Provider)
	assert.Equal(t, "nano-banana-pro", result.Model)
	assert.Equal(t, "succeeded", result.RawResponse["status"])

	assert.Equal(t, string(EndpointNanoBanana), c.path)
	assert.Equal(t, map[string]any{
		"model":        "nano-banana-pro",
		"prompt":       "a cat",
		"aspectRatio":  "16:9",
		"shutProgress": true,
		"urls":         []any{"https://ref/1.png"},
	}, c.body)
}

func TestProvider_Generate_Completions(t *testing.T) {
	p, c := newTestProvider(t, `data: {"status":"succeeded","url":"https://img/one.png"}`)

	result := p.Generate(context.Background(), request(t, map[string]any{
		"prompt":       "a cat",
		"model":        "sora-image",
		"aspect_ratio": "9:16",
		"n":            2,
	}))

	require.True(t, result.Success, result.Message)
	assert.Equal(t, []string{"https://img/one.png"}, result.Images)

	assert.Equal(t, string(EndpointCompletions), c.path)
	assert.Equal(t, map[string]any{
		"model":        "sora-image",
		"prompt":       "a cat",
		"size":         "768x1366",
		"variants":     float64(2),
		"shutProgress": true,
	}, c.body)
}

func TestProvider_Generate_DefaultModel(t *testing.T) {
	p, c := newTestProvider(t, `{"status":"succeeded","results":[{"url":"u"}]}`)

	result := p.Generate(context.Background(), request(t, map[string]any{"prompt": "a cat"}))

	require.True(t, result.Success)
	assert.Equal(t, "nano-banana", result.Model)
	assert.Equal(t, "nano-banana", c.body["model"])
	assert.Equal(t, "1:1", c.body["aspectRatio"])
}

func TestProvider_Generate_StatusNormalization(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		success bool
		message string
		images  []string
	}{
		{"succeeded without urls", `data: {"status":"succeeded"}`, true, "", []string{}},
		{"failed", `data: {"status":"failed","failure_reason":"output_moderation","error":"blocked"}`, false, "API failed: output_moderation blocked", nil},
		{"failed without reason", `data: {"status":"failed"}`, false, "API failed:  ", nil},
		{"code -1", `{"code":-1,"msg":"insufficient credits"}`, false, "insufficient credits", nil},
		{"code -1 without msg", `{"code":-1}`, false, "unknown error", nil},
		{"unknown status", `data: {"status":"queued"}`, false, "unknown status: queued", nil},
		{"missing status", `data: {"progress":100}`, false, "unknown status: <missing>", nil},
		{"null status", `data: {"status":null}`, false, "unknown status: <missing>", nil},
		{"numeric status", `data: {"status":3}`, false, "unknown status: 3", nil},
		{"empty status", `data: {"status":""}`, false, `unknown status: ""`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProvider(t, tt.body)
			result := p.Generate(context.Background(), request(t, map[string]any{"prompt": "x", "model": "nano-banana"}))

			assert.Equal(t, tt.success, result.Success)
			assert.Equal(t, tt.message, result.Message)
			if tt.success {
				assert.Equal(t, tt.images, result.Images)
				assert.Empty(t, result.Code)
			} else {
				assert.Empty(t, result.Images)
				assert.Equal(t, types.ErrUpstreamError, result.Code)
			}
		})
	}
}

func TestProvider_Generate_Errors(t *testing.T) {
	t.Run("unknown model", func(t *testing.T) {
		p, c := newTestProvider(t, `{}`)
		result := p.Generate(context.Background(), request(t, map[string]any{"prompt": "x", "model": "flux"}))

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "grsai provider error: ")
		assert.Contains(t, result.Message, "MODEL_NOT_FOUND")
		assert.Contains(t, result.Message, "sora-image")
		assert.Equal(t, "flux", result.Model)
		assert.Equal(t, types.ErrModelNotFound, result.Code)
		assert.Empty(t, c.path, "no request should be sent")
	})

	t.Run("unparseable body", func(t *testing.T) {
		p, _ := newTestProvider(t, "event: ping\n")
		result := p.Generate(context.Background(), request(t, map[string]any{"prompt": "x", "model": "sora-image"}))

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "grsai provider error: ")
		assert.Contains(t, result.Message, "PARSE_ERROR")
		assert.Equal(t, types.ErrParse, result.Code)
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"msg":"too many"}`))
		}))
		defer server.Close()

		p := NewProvider(image.ProviderConfig{APIKey: "k", BaseURL: server.URL}, nil)
		result := p.Generate(context.Background(), request(t, map[string]any{"prompt": "x"}))

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "RATE_LIMITED")
		assert.Contains(t, result.Message, "429")
		assert.Contains(t, result.Message, "too many")
		assert.Equal(t, types.ErrRateLimited, result.Code)
	})

	t.Run("missing api key", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		p := NewProvider(image.ProviderConfig{BaseURL: server.URL}, nil)
		result := p.Generate(context.Background(), request(t, map[string]any{"prompt": "x"}))

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "GRSAI API key is not set")
		assert.Equal(t, types.ErrConfiguration, result.Code)
		assert.Equal(t, int32(0), calls.Load())
	})
}

func TestProvider_Generate_NilRequest(t *testing.T) {
	p := NewProvider(image.ProviderConfig{APIKey: "k"}, nil)

	var result *image.Result
	require.NotPanics(t, func() { result = p.Generate(context.Background(), nil) })

	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "grsai", result.Provider)
	assert.Empty(t, result.Model)
	assert.Contains(t, result.Message, "grsai provider error: ")
	assert.Equal(t, types.ErrInvalidRequest, result.Code)
}

func TestProvider_Metadata(t *testing.T) {
	p := NewProvider(image.ProviderConfig{}, nil)
	assert.Equal(t, "grsai", p.Name())
	assert.Equal(t, SupportedModels(), p.SupportedModels())

	var _ image.Provider = p
}

func TestProvider_Live(t *testing.T) {
	key := os.Getenv("GRSAI_API_KEY")
	if key == "" || testing.Short() {
		t.Skip("GRSAI_API_KEY not set")
	}

	p := NewProvider(image.ProviderConfig{APIKey: key, BaseURL: os.Getenv("GRSAI_BASE_URL")}, nil)
	result := p.Generate(context.Background(), request(t, map[string]any{
		"prompt": "a small red apple on a white table",
		"model":  "nano-banana-fast",
	}))
	require.True(t, result.Success, result.Message)
	assert.NotEmpty(t, result.Images)
}
