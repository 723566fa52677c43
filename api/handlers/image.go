package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Waym1ng/imagegen/internal/ctxkeys"
	"github.com/Waym1ng/imagegen/llm/image"
	"github.com/Waym1ng/imagegen/skill"
	"github.com/Waym1ng/imagegen/types"
)

// =============================================================================
// 🖼️ 图像生成 Handler
// =============================================================================

// Generator 执行一次图像生成，*skill.Skill 实现了该接口
type Generator interface {
	Run(ctx context.Context, inputs map[string]any) skill.Response
}

// ProviderModels 单个平台支持的模型
type ProviderModels struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
}

// ImageHandler 图像生成处理器
type ImageHandler struct {
	generator Generator
	registry  *image.Registry
	logger    *zap.Logger
}

// NewImageHandler 创建图像生成处理器
func NewImageHandler(generator Generator, registry *image.Registry, logger *zap.Logger) *ImageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageHandler{
		generator: generator,
		registry:  registry,
		logger:    logger.With(zap.String("handler", "image")),
	}
}

// HandleGenerate 处理 POST /api/v1/images/generations
// 请求体与 skill 输入一致，生成结果（包括生成失败）总是五字段结构，状态码由错误码决定。
// 方法、Content-Type 或请求体本身不合法时请求不会进入生成流程，
// 这类错误使用通用的 Response 结构（error.code / error.message）。
// @Summary 生成图片
// @Tags 图像
// @Accept json
// @Produce json
// @Success 200 {object} skill.Response "生成成功"
// @Failure 400 {object} skill.Response "请求无效"
// @Failure 405 {object} Response "方法不允许"
// @Failure 415 {object} Response "Content-Type 不是 JSON"
// @Failure 502 {object} skill.Response "上游平台失败"
// @Router /api/v1/images/generations [post]
func (h *ImageHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var inputs map[string]any
	if err := DecodeJSONBody(w, r, &inputs, h.logger); err != nil {
		return
	}
	if inputs == nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "request body must be a JSON object", h.logger)
		return
	}

	resp := h.generator.Run(r.Context(), inputs)

	status := http.StatusOK
	if !resp.Success {
		status = failureStatus(resp.Code)
		requestID, _ := ctxkeys.RequestID(r.Context())
		h.logger.Info("generation request failed",
			zap.String("request_id", requestID),
			zap.Int("status", status),
			zap.String("message", resp.Message))
	}
	WriteJSON(w, status, resp)
}

// HandleModels 处理 GET /api/v1/models，按注册顺序列出各平台模型
// @Summary 模型列表
// @Tags 图像
// @Produce json
// @Success 200 {object} Response "模型列表"
// @Router /api/v1/models [get]
func (h *ImageHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	out := make([]ProviderModels, 0, 2)
	for _, name := range h.registry.List() {
		p, err := h.registry.Get(name, "")
		if err != nil {
			h.logger.Warn("failed to instantiate provider", zap.String("provider", name), zap.Error(err))
			continue
		}
		out = append(out, ProviderModels{Provider: p.Name(), Models: p.SupportedModels()})
	}
	WriteSuccess(w, out)
}

// failureStatus 根据失败结果的错误码选择状态码。
// 上游返回的 401/403 针对的是本服务配置的平台凭证，对调用方而言是网关错误；
// 没有错误码的失败来自平台本身，同样视为 502。
func failureStatus(code types.ErrorCode) int {
	switch code {
	case "", types.ErrUnauthorized, types.ErrForbidden:
		return http.StatusBadGateway
	default:
		return mapErrorCodeToHTTPStatus(code)
	}
}
