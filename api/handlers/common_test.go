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

	"github.com/Waym1ng/imagegen/types"
)

// decodeEnvelope 解析非生成接口使用的统一响应结构
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestWriteSuccess_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"version": "1.2.0"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"version": "1.2.0"}, resp.Data)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestWriteError_Envelope(t *testing.T) {
	tests := []struct {
		name          string
		err           *types.Error
		wantStatus    int
		wantRetryable bool
	}{
		{
			name:       "unknown provider",
			err:        types.NewError(types.ErrProviderNotFound, `unknown provider "midjourney"`),
			wantStatus: http.StatusNotFound,
		},
		{
			name:          "gateway rate limit keeps retryable flag",
			err:           types.NewError(types.ErrRateLimited, "too many requests").WithRetryable(true),
			wantStatus:    http.StatusTooManyRequests,
			wantRetryable: true,
		},
		{
			name:       "explicit status wins over code mapping",
			err:        types.NewError(types.ErrInvalidRequest, "method not allowed").WithHTTPStatus(http.StatusMethodNotAllowed),
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "no providers registered",
			err:        types.NewError(types.ErrNoProviders, "no image providers registered"),
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err, zap.NewNop())

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeEnvelope(t, w)
			assert.False(t, resp.Success)
			assert.Nil(t, resp.Data)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.err.Code), resp.Error.Code)
			assert.Equal(t, tt.err.Message, resp.Error.Message)
			assert.Equal(t, tt.wantRetryable, resp.Error.Retryable)
		})
	}
}

func TestWriteErrorMessage_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorMessage(w, http.StatusUnauthorized, types.ErrUnauthorized, "invalid or missing API key", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, string(types.ErrUnauthorized), resp.Error.Code)
}

func TestDecodeJSONBody_GenerationInputs(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantErr    string
		wantInputs map[string]any
	}{
		{
			name:       "platform specific fields are kept",
			body:       `{"prompt":"a cat","model":"nano-banana","watermark":false}`,
			wantInputs: map[string]any{"prompt": "a cat", "model": "nano-banana", "watermark": false},
		},
		{
			name:    "array is not an inputs object",
			body:    `[{"prompt":"a cat"}]`,
			wantErr: "invalid JSON body",
		},
		{
			name:    "trailing comma",
			body:    `{"prompt":"a cat",}`,
			wantErr: "invalid JSON body",
		},
		{
			name:    "empty body",
			body:    "",
			wantErr: "request body is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/v1/images/generations", strings.NewReader(tt.body))
			if tt.body == "" {
				r.Body = http.NoBody
			}

			var inputs map[string]any
			err := DecodeJSONBody(w, r, &inputs, zap.NewNop())

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantInputs, inputs)
				assert.Equal(t, 0, w.Body.Len(), "nothing is written on success")
				return
			}
			require.Error(t, err)
			assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeEnvelope(t, w).Error.Message, tt.wantErr)
		})
	}
}

func TestDecodeJSONBody_RejectsOversizedPrompt(t *testing.T) {
	body := `{"prompt":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/images/generations", strings.NewReader(body))

	var inputs map[string]any
	err := DecodeJSONBody(w, r, &inputs, zap.NewNop())

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON; charset=UTF-8", true},
		{"text/plain", false},
		{"multipart/form-data; boundary=x", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/v1/images/generations", nil)
			r.Header.Set("Content-Type", tt.contentType)

			assert.Equal(t, tt.want, ValidateContentType(w, r, zap.NewNop()))
			if tt.want {
				assert.Equal(t, 0, w.Body.Len())
				return
			}
			assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
			assert.Equal(t, string(types.ErrInvalidRequest), decodeEnvelope(t, w).Error.Code)
		})
	}
}

func TestResponseWriter_KeepsFirstStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)
	assert.Equal(t, http.StatusOK, rw.StatusCode)

	rw.WriteHeader(http.StatusBadGateway)
	rw.WriteHeader(http.StatusOK)
	assert.Equal(t, http.StatusBadGateway, rw.StatusCode)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Same(t, w, rw.Unwrap())
}

func TestResponseWriter_ImplicitOK(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	_, err := rw.Write([]byte(`{"success":true}`))
	require.NoError(t, err)
	assert.True(t, rw.Written)
	assert.Equal(t, http.StatusOK, rw.StatusCode)
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code       types.ErrorCode
		wantStatus int
	}{
		{types.ErrInvalidRequest, http.StatusBadRequest},
		{types.ErrUnsupportedEndpoint, http.StatusBadRequest},
		{types.ErrUnauthorized, http.StatusUnauthorized},
		{types.ErrForbidden, http.StatusForbidden},
		{types.ErrModelNotFound, http.StatusNotFound},
		{types.ErrProviderNotFound, http.StatusNotFound},
		{types.ErrRateLimited, http.StatusTooManyRequests},
		{types.ErrQuotaExceeded, http.StatusPaymentRequired},
		{types.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{types.ErrUpstreamError, http.StatusBadGateway},
		{types.ErrParse, http.StatusBadGateway},
		{types.ErrNoProviders, http.StatusServiceUnavailable},
		{types.ErrServiceUnavailable, http.StatusServiceUnavailable},
		{types.ErrConfiguration, http.StatusInternalServerError},
		{types.ErrInternalError, http.StatusInternalServerError},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, mapErrorCodeToHTTPStatus(tt.code))
		})
	}
}
