package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Waym1ng/imagegen/llm/image"
)

// =============================================================================
// 🏥 存活与就绪
// =============================================================================

// readyTimeout 单次就绪检查的总时限
const readyTimeout = 5 * time.Second

// CheckFunc 就绪检查。detail 在通过时也会写入响应。
type CheckFunc func(ctx context.Context) (detail string, err error)

// HealthHandler 存活与就绪端点
type HealthHandler struct {
	logger *zap.Logger

	mu     sync.RWMutex
	names  []string
	checks map[string]CheckFunc
}

// HealthResponse 存活与就绪响应
type HealthResponse struct {
	Status    string        `json:"status"` // "ok", "unavailable"
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks,omitempty"`
}

// CheckResult 单项检查结果，按注册顺序输出
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Detail  string `json:"detail,omitempty"`
	Latency string `json:"latency"`
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		logger: logger.With(zap.String("handler", "health")),
		checks: make(map[string]CheckFunc),
	}
}

// RegisterCheck 注册就绪检查，同名检查会被替换但保留原有顺序
func (h *HealthHandler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.checks[name]; !ok {
		h.names = append(h.names, name)
	}
	h.checks[name] = check
}

// HandleLive 处理 /health 与 /healthz。进程能响应即视为存活，不访问上游。
// @Summary 存活检查
// @Tags 健康
// @Produce json
// @Success 200 {object} HealthResponse "进程存活"
// @Router /health [get]
func (h *HealthHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now()})
}

// HandleReady 处理 /ready 与 /readyz：依次执行所有检查，任一失败返回 503
// @Summary 就绪检查
// @Tags 健康
// @Produce json
// @Success 200 {object} HealthResponse "可以接收生成请求"
// @Failure 503 {object} HealthResponse "平台凭证或注册表不可用"
// @Router /ready [get]
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	h.mu.RLock()
	names := append([]string(nil), h.names...)
	checks := make([]CheckFunc, len(names))
	for i, name := range names {
		checks[i] = h.checks[name]
	}
	h.mu.RUnlock()

	resp := HealthResponse{Status: "ok", Timestamp: time.Now(), Checks: make([]CheckResult, 0, len(names))}
	for i, check := range checks {
		start := time.Now()
		detail, err := check(ctx)
		result := CheckResult{Name: names[i], Passed: err == nil, Detail: detail, Latency: time.Since(start).String()}
		if err != nil {
			resp.Status = "unavailable"
			result.Detail = err.Error()
			h.logger.Warn("readiness check failed", zap.String("check", names[i]), zap.Error(err))
		}
		resp.Checks = append(resp.Checks, result)
	}

	WriteJSON(w, lo.Ternary(resp.Status == "ok", http.StatusOK, http.StatusServiceUnavailable), resp)
}

// HandleVersion 处理 /version 请求
// @Summary 版本信息
// @Tags 健康
// @Produce json
// @Success 200 {object} map[string]string "版本信息"
// @Router /version [get]
func (h *HealthHandler) HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteSuccess(w, map[string]string{
			"version":    version,
			"build_time": buildTime,
			"git_commit": gitCommit,
		})
	}
}

// =============================================================================
// 🔧 内置检查
// =============================================================================

// CredentialsCheck 至少一个平台配置了 API Key 时通过，detail 列出缺少 Key 的平台。
// keys 为 平台名 -> API Key。
func CredentialsCheck(keys map[string]string) CheckFunc {
	return func(ctx context.Context) (string, error) {
		missing := lo.Filter(lo.Keys(keys), func(name string, _ int) bool { return keys[name] == "" })
		sort.Strings(missing)
		if len(missing) == len(keys) {
			return "", fmt.Errorf("no API key configured for providers: %s", strings.Join(missing, ", "))
		}
		if len(missing) > 0 {
			return "missing API key: " + strings.Join(missing, ", "), nil
		}
		return "all providers configured", nil
	}
}

// RegistryCheck 逐个实例化注册表中的 Provider，注册表为空或任一构造失败时不通过
func RegistryCheck(registry *image.Registry) CheckFunc {
	return func(ctx context.Context) (string, error) {
		names := registry.List()
		if len(names) == 0 {
			return "", fmt.Errorf("no providers registered")
		}
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			if _, err := registry.Get(name, ""); err != nil {
				return "", fmt.Errorf("provider %s: %w", name, err)
			}
		}
		return strings.Join(names, ", "), nil
	}
}
