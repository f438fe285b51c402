// Package chat 暴露会话与消息历史的 HTTP 接口。
package chat

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chenweiyi/roleverse/backend/internal/fault"
	"github.com/chenweiyi/roleverse/backend/internal/middleware"
	chatModel "github.com/chenweiyi/roleverse/backend/internal/model/chat"
	catalogService "github.com/chenweiyi/roleverse/backend/internal/service/catalog"
	chatService "github.com/chenweiyi/roleverse/backend/internal/service/chat"
	"github.com/chenweiyi/roleverse/backend/pkg/utils"
)

const defaultMessagePageSize = 50

// Handler 会话服务的HTTP处理器
type Handler struct {
	sessions chatService.Store
	catalog  catalogService.Store
	auth     middleware.Authenticator
}

// New 创建会话处理器
func New(sessions chatService.Store, catalog catalogService.Store, auth middleware.Authenticator) *Handler {
	return &Handler{sessions: sessions, catalog: catalog, auth: auth}
}

// RegisterRoutes 注册会话相关的路由，全部要求登录。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.auth))
		pr.Post("/sessions", h.handleCreateSession)
		pr.Get("/sessions", h.handleListSessions)
		pr.Get("/sessions/{sessionID}", h.handleGetSession)
		pr.Get("/sessions/{sessionID}/messages", h.handleListMessages)
		pr.Put("/sessions/{sessionID}/scene", h.handleUpdateScene)
	})
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CharacterID string `json:"characterId"`
		SceneID     string `json:"sceneId"`
		Title       string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "请求体格式错误")
		return
	}
	if payload.CharacterID == "" {
		utils.RespondError(w, http.StatusBadRequest, "缺少角色ID")
		return
	}

	character, err := h.catalog.GetCharacter(r.Context(), payload.CharacterID)
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	if payload.SceneID != "" {
		if _, err := h.catalog.GetScene(r.Context(), payload.SceneID); err != nil {
			utils.RespondError(w, statusOf(err), err.Error())
			return
		}
	}

	title := payload.Title
	if title == "" {
		title = "与" + character.Name + "的对话"
	}

	session, err := h.sessions.CreateSession(r.Context(), chatModel.Session{
		UserID:      middleware.UserID(r.Context()),
		CharacterID: payload.CharacterID,
		SceneID:     payload.SceneID,
		Title:       title,
	})
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}

	// 使用计数只影响排序，失败不阻塞建会话。
	if err := h.catalog.BumpUsage(r.Context(), payload.CharacterID); err != nil {
		log.Printf("[chat] 更新角色使用计数失败: %v", err)
	}

	utils.RespondData(w, http.StatusCreated, session)
}

// handleListSessions 列出当前用户的会话
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListUserSessions(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusOK, sessions)
}

// handleGetSession 返回会话详情
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	utils.RespondData(w, http.StatusOK, session)
}

// handleListMessages 分页返回会话消息
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", defaultMessagePageSize)
	offset := queryInt(r, "offset", 0)

	messages, err := h.sessions.ListMessages(r.Context(), session.ID, limit, offset)
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusOK, messages)
}

// handleUpdateScene 切换会话绑定的场景
func (h *Handler) handleUpdateScene(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var payload struct {
		SceneID string `json:"sceneId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "请求体格式错误")
		return
	}
	if payload.SceneID != "" {
		if _, err := h.catalog.GetScene(r.Context(), payload.SceneID); err != nil {
			utils.RespondError(w, statusOf(err), err.Error())
			return
		}
	}

	if err := h.sessions.UpdateSessionScene(r.Context(), session.ID, payload.SceneID); err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusOK, map[string]string{"sceneId": payload.SceneID})
}

// ownedSession 加载路径中的会话并校验归属，失败时已写出响应。
func (h *Handler) ownedSession(w http.ResponseWriter, r *http.Request) (chatModel.Session, bool) {
	session, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return chatModel.Session{}, false
	}
	if session.UserID != middleware.UserID(r.Context()) {
		utils.RespondError(w, http.StatusForbidden, "无权访问该会话")
		return chatModel.Session{}, false
	}
	return session, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
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
