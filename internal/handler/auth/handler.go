// Package auth 暴露注册、登录等账号相关的 HTTP 接口。
package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chenweiyi/roleverse/backend/internal/fault"
	"github.com/chenweiyi/roleverse/backend/internal/middleware"
	authService "github.com/chenweiyi/roleverse/backend/internal/service/auth"
	"github.com/chenweiyi/roleverse/backend/pkg/utils"
)

// Handler 账号相关的HTTP处理器
type Handler struct {
	authSvc *authService.Service
}

// New 创建账号处理器
func New(authSvc *authService.Service) *Handler {
	return &Handler{authSvc: authSvc}
}

// RegisterRoutes 注册账号相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.authSvc))
		pr.Get("/auth/me", h.handleMe)
	})
}

// handleRegister 注册账号并直接返回令牌
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "请求体格式错误")
		return
	}

	result, err := h.authSvc.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusCreated, result)
}

// handleLogin 校验密码并签发令牌
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "请求体格式错误")
		return
	}
	if payload.Username == "" || payload.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "用户名和密码不能为空")
		return
	}

	result, err := h.authSvc.Login(r.Context(), payload.Username, payload.Password, payload.Remember)
	if err != nil {
		// 凭证类错误统一按未授权返回，避免泄露账号是否存在。
		status := http.StatusUnauthorized
		if fault.Is(err, fault.Permanent) {
			status = http.StatusForbidden
		} else if fault.Is(err, fault.Persistence) {
			status = http.StatusInternalServerError
		}
		utils.RespondError(w, status, err.Error())
		return
	}
	utils.RespondData(w, http.StatusOK, result)
}

// handleLogout 注销当前令牌
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		utils.RespondError(w, http.StatusUnauthorized, "缺少访问令牌")
		return
	}
	if err := h.authSvc.Logout(r.Context(), token); err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// handleMe 返回当前登录用户
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.authSvc.Me(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		utils.RespondError(w, statusOf(err), err.Error())
		return
	}
	utils.RespondData(w, http.StatusOK, user)
}

func statusOf(err error) int {
	switch fault.KindOf(err) {
	case fault.Validation:
		return http.StatusBadRequest
	case fault.NotFound:
		return http.StatusNotFound
	case fault.Permanent:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
