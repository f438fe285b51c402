// Package catalog 暴露角色与场景目录的 HTTP 接口。
package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chenweiyi/roleverse/backend/internal/fault"
	"github.com/chenweiyi/roleverse/backend/internal/middleware"
	catalogModel "github.com/chenweiyi/roleverse/backend/internal/model/catalog"
	catalogService "github.com/chenweiyi/roleverse/backend/internal/service/catalog"
	"github.com/chenweiyi/roleverse/backend/pkg/utils"
)

// Handler 目录服务的HTTP处理器
type Handler struct {
	store catalogService.Store
	auth  middleware.Authenticator
}

// New 创建目录处理器
func New(store catalogService.Store, auth middleware.Authenticator) *Handler {
	return &Handler{store: store, auth: auth}
}

// RegisterRoutes 注册目录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/characters", h.handleListCharacters)
	r.Get("/characters/{characterID}", h.handleGetCharacter)
	r.Get("/scenes", h.handleListScenes)
	r.Get("/scenes/{sceneID}", h.handleGetScene)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.auth))
		pr.Post("/characters", h.handleCreateCharacter)
		pr.Post("/scenes", h.handleCreateScene)
	})
}

// handleListCharacters 列出公开角色
func (h *Handler) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	characters, err := h.store.ListCharacters(r.Context())
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusOK, characters)
}

// handleGetCharacter 返回角色详情
func (h *Handler) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	character, err := h.store.GetCharacter(r.Context(), chi.URLParam(r, "characterID"))
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusOK, character)
}

// handleCreateCharacter 创建自定义角色
func (h *Handler) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name              string `json:"name"`
		Description       string `json:"description"`
		AvatarURL         string `json:"avatarUrl"`
		Personality       string `json:"personality"`
		Background        string `json:"background"`
		VoiceType         string `json:"voiceType"`
		Theme             string `json:"theme"`
		Skills            string `json:"skills"`
		EmotionalTendency string `json:"emotionalTendency"`
		SystemPrompt      string `json:"systemPrompt"`
		IsPublic          bool   `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "请求体格式错误")
		return
	}

	character, err := h.store.CreateCharacter(r.Context(), catalogModel.Character{
		Name:              payload.Name,
		Description:       payload.Description,
		AvatarURL:         payload.AvatarURL,
		Personality:       payload.Personality,
		Background:        payload.Background,
		VoiceType:         payload.VoiceType,
		Theme:             payload.Theme,
		Skills:            payload.Skills,
		EmotionalTendency: payload.EmotionalTendency,
		SystemPrompt:      payload.SystemPrompt,
		IsCustom:          true,
		IsPublic:          payload.IsPublic,
		CreatedBy:         middleware.UserID(r.Context()),
	})
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusCreated, character)
}

// handleListScenes 列出公开场景
func (h *Handler) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := h.store.ListScenes(r.Context())
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusOK, scenes)
}

// handleGetScene 返回场景详情
func (h *Handler) handleGetScene(w http.ResponseWriter, r *http.Request) {
	scene, err := h.store.GetScene(r.Context(), chi.URLParam(r, "sceneID"))
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusOK, scene)
}

// handleCreateScene 创建自定义场景
func (h *Handler) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name             string `json:"name"`
		Description      string `json:"description"`
		BackgroundPrompt string `json:"backgroundPrompt"`
		ImageURL         string `json:"imageUrl"`
		Category         string `json:"category"`
		IsPublic         bool   `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "请求体格式错误")
		return
	}

	scene, err := h.store.CreateScene(r.Context(), catalogModel.Scene{
		Name:             payload.Name,
		Description:      payload.Description,
		BackgroundPrompt: payload.BackgroundPrompt,
		ImageURL:         payload.ImageURL,
		Category:         payload.Category,
		IsPublic:         payload.IsPublic,
		CreatedBy:        middleware.UserID(r.Context()),
	})
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusCreated, scene)
}

func statusOf(err error) int {
	switch fault.KindOf(err) {
	case fault.Validation:
		return http.StatusBadRequest
	case fault.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
