package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/chenweiyi/roleverse/backend/pkg/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// Authenticator 校验访问令牌并返回用户ID。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// RequireAuth 要求请求携带有效的 Bearer 令牌，校验通过后把用户ID写入上下文。
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				utils.RespondError(w, http.StatusUnauthorized, "缺少访问令牌")
				return
			}
			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "无效的访问令牌")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken 提取 Authorization 头里的 Bearer 令牌，没有则返回空串。
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// UserID 读取上下文中的用户ID。
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
