package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Waym1ng/imagegen/internal/tlsutil"
	"github.com/Waym1ng/imagegen/types"
)

// Client 平台共享的 HTTP 调用封装。
// 每次调用独立建连（关闭 keep-alive），不做重试。
type Client struct {
	provider string
	apiKey   string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient 创建 HTTP 调用封装
func NewClient(provider, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		provider: provider,
		apiKey:   apiKey,
		http:     tlsutil.UpstreamClient(timeout),
		logger:   logger,
	}
}

// PostJSON 以 Bearer 认证 POST JSON 请求，返回响应体。
// 未配置 API Key 时在发起网络请求前返回 CONFIGURATION 错误；
// 状态码 >= 400 时返回 MapHTTPError 映射后的错误。
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	if c.apiKey == "" {
		return nil, types.Errorf(types.ErrConfiguration, "%s API key is not set", strings.ToUpper(c.provider)).
			WithProvider(c.provider)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to encode request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to create request").WithCause(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending image request",
		zap.String("provider", c.provider),
		zap.String("url", url),
		zap.Int("payload_bytes", len(body)))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, mapTransportError(err, c.provider)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := ReadErrorMessage(resp.Body)
		return nil, MapHTTPError(resp.StatusCode, msg, c.provider)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "failed to read response").
			WithCause(err).
			WithProvider(c.provider)
	}
	return data, nil
}

// MapHTTPError 将 HTTP 状态码映射为带有重试标记的 types.Error，消息中保留状态码与上游响应
func MapHTTPError(status int, msg string, provider string) *types.Error {
	text := fmt.Sprintf("request failed (%d): %s", status, msg)

	var code types.ErrorCode
	retryable := false
	switch status {
	case http.StatusUnauthorized:
		code = types.ErrUnauthorized
	case http.StatusForbidden:
		code = types.ErrForbidden
	case http.StatusTooManyRequests:
		code, retryable = types.ErrRateLimited, true
	case http.StatusBadRequest:
		// 检查配额/信用关键字
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "credit") || strings.Contains(lower, "余额") {
			code = types.ErrQuotaExceeded
		} else {
			code = types.ErrInvalidRequest
		}
	case http.StatusGatewayTimeout:
		code, retryable = types.ErrUpstreamTimeout, true
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		code, retryable = types.ErrUpstreamError, true
	default:
		code, retryable = types.ErrUpstreamError, status >= 500
	}

	return types.NewError(code, text).
		WithHTTPStatus(status).
		WithRetryable(retryable).
		WithProvider(provider)
}

// ReadErrorMessage 读取响应体中的错误消息
// 尝试解析 JSON 错误响应，失败则回退到原始文本
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil {
		if errResp.Error.Message != "" {
			if errResp.Error.Type != "" {
				return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
			}
			return errResp.Error.Message
		}
		if errResp.Msg != "" {
			return errResp.Msg
		}
	}

	return strings.TrimSpace(string(data))
}

func mapTransportError(err error, provider string) *types.Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return types.NewError(types.ErrUpstreamTimeout, "request timed out").
			WithCause(err).
			WithRetryable(true).
			WithProvider(provider)
	}
	return types.NewError(types.ErrUpstreamError, "connection failed").
		WithCause(err).
		WithRetryable(true).
		WithProvider(provider)
}
