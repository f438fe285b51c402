// Package speech 暴露音色列表等语音相关的 HTTP 接口。
package speech

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	speechService "github.com/chenweiyi/roleverse/backend/internal/service/speech"
	"github.com/chenweiyi/roleverse/backend/pkg/utils"
)

// Handler 语音服务的HTTP处理器
type Handler struct {
	speechSvc *speechService.Service
}

// New 创建语音处理器
func New(speechSvc *speechService.Service) *Handler {
	return &Handler{speechSvc: speechSvc}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/voice/list", h.handleListVoices)
}

// handleListVoices 透传网关的音色列表
func (h *Handler) handleListVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := h.speechSvc.ListVoices(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "获取音色列表失败")
		return
	}
	utils.RespondData(w, http.StatusOK, voices)
}
