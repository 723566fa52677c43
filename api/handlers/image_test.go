package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/skill"
	"github.com/Waym1ng/imagegen/testutil/mocks"
	"github.com/Waym1ng/imagegen/types"
)

func newImageHandler(providers ...*mocks.MockProvider) *ImageHandler {
	registry := image.NewRegistry()
	for _, p := range providers {
		registry.Register(p.Name(), p.Constructor(), p.Name())
	}
	return NewImageHandler(skill.New(registry), registry, zap.NewNop())
}

func postGenerate(h *ImageHandler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/images/generations", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	h.HandleGenerate(w, r)
	return w
}

func TestImageHandler_Generate_Success(t *testing.T) {
	p := mocks.NewMockProvider("blt").WithImages("https://img/1.png")
	h := newImageHandler(p)

	w := postGenerate(h, `{"prompt":"a cat","model":"flux","n":2,"image_urls":["https://ref/1.png"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"success":true,"images":["https://img/1.png"],"provider":"blt","model":"flux","message":null}`,
		w.Body.String())

	req := p.LastCall()
	require.NotNil(t, req)
	assert.Equal(t, 2, req.N)
	assert.Equal(t, []string{"https://ref/1.png"}, req.ImageURLs)
}

func TestImageHandler_Generate_Failures(t *testing.T) {
	tests := []struct {
		name       string
		provider   *mocks.MockProvider
		body       string
		wantStatus int
		wantPrefix string
	}{
		{
			name:       "missing prompt",
			provider:   mocks.NewMockProvider("blt"),
			body:       `{"model":"flux"}`,
			wantStatus: http.StatusBadRequest,
			wantPrefix: "skill execution error: ",
		},
		{
			name:       "unknown provider",
			provider:   mocks.NewMockProvider("blt"),
			body:       `{"prompt":"x","provider":"dalle"}`,
			wantStatus: http.StatusNotFound,
			wantPrefix: "skill execution error: ",
		},
		{
			name: "upstream rejects server credentials",
			provider: mocks.NewMockProvider("blt").WithFailureCode(
				"blt provider error: [UNAUTHORIZED] request failed (401): bad key", types.ErrUnauthorized),
			body:       `{"prompt":"x"}`,
			wantStatus: http.StatusBadGateway,
			wantPrefix: "blt provider error: ",
		},
		{
			name: "upstream rate limited",
			provider: mocks.NewMockProvider("grsai").WithFailureCode(
				"grsai provider error: [RATE_LIMITED] request failed (429): slow down", types.ErrRateLimited),
			body:       `{"prompt":"x"}`,
			wantStatus: http.StatusTooManyRequests,
			wantPrefix: "grsai provider error: ",
		},
		{
			name: "bracketed upstream text is not a code",
			provider: mocks.NewMockProvider("grsai").WithFailureCode(
				"API failed: [NSFW] content blocked", types.ErrUpstreamError),
			body:       `{"prompt":"x"}`,
			wantStatus: http.StatusBadGateway,
			wantPrefix: "API failed: ",
		},
		{
			name:       "platform failure without code",
			provider:   mocks.NewMockProvider("grsai").WithFailure("API failed: moderation blocked"),
			body:       `{"prompt":"x"}`,
			wantStatus: http.StatusBadGateway,
			wantPrefix: "API failed: ",
		},
		{
			name:       "panic",
			provider:   mocks.NewMockProvider("blt").WithPanic("boom"),
			body:       `{"prompt":"x"}`,
			wantStatus: http.StatusInternalServerError,
			wantPrefix: "skill execution error: panic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postGenerate(newImageHandler(tt.provider), tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, []any{}, resp["images"])
			assert.True(t, strings.HasPrefix(resp["message"].(string), tt.wantPrefix), resp["message"])
		})
	}
}

func TestImageHandler_Generate_BadBody(t *testing.T) {
	h := newImageHandler(mocks.NewMockProvider("blt"))

	for _, body := range []string{`{"prompt":`, `null`, `["a"]`} {
		w := postGenerate(h, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)

		var resp Response
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
	}
}

func TestImageHandler_Generate_RequiresJSONContentType(t *testing.T) {
	p := mocks.NewMockProvider("blt")
	h := newImageHandler(p)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/images/generations", strings.NewReader(`{"prompt":"x"}`))
	r.Header.Set("Content-Type", "text/plain")
	h.HandleGenerate(w, r)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, 0, p.CallCount())
}

func TestImageHandler_Generate_UnknownFieldsForwarded(t *testing.T) {
	p := mocks.NewMockProvider("blt")
	h := newImageHandler(p)

	w := postGenerate(h, `{"prompt":"x","watermark":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, p.LastCall().Extra["watermark"])
}

func TestImageHandler_Generate_MethodNotAllowed(t *testing.T) {
	h := newImageHandler(mocks.NewMockProvider("blt"))

	w := httptest.NewRecorder()
	h.HandleGenerate(w, httptest.NewRequest(http.MethodGet, "/api/v1/images/generations", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestImageHandler_Models(t *testing.T) {
	h := newImageHandler(
		mocks.NewMockProvider("blt").WithModels("flux", "nano-banana"),
		mocks.NewMockProvider("grsai").WithModels("sora-image"),
	)

	w := httptest.NewRecorder()
	h.HandleModels(w, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool             `json:"success"`
		Data    []ProviderModels `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []ProviderModels{
		{Provider: "blt", Models: []string{"flux", "nano-banana"}},
		{Provider: "grsai", Models: []string{"sora-image"}},
	}, resp.Data)
}

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		code types.ErrorCode
		want int
	}{
		{types.ErrInvalidRequest, http.StatusBadRequest},
		{types.ErrModelNotFound, http.StatusNotFound},
		{types.ErrProviderNotFound, http.StatusNotFound},
		{types.ErrNoProviders, http.StatusServiceUnavailable},
		{types.ErrConfiguration, http.StatusInternalServerError},
		{types.ErrInternalError, http.StatusInternalServerError},
		{types.ErrUnauthorized, http.StatusBadGateway},
		{types.ErrForbidden, http.StatusBadGateway},
		{types.ErrRateLimited, http.StatusTooManyRequests},
		{types.ErrQuotaExceeded, http.StatusPaymentRequired},
		{types.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{types.ErrUpstreamError, http.StatusBadGateway},
		{types.ErrParse, http.StatusBadGateway},
		{"", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, failureStatus(tt.code))
		})
	}
}
