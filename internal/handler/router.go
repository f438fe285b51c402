package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authHandler "github.com/chenweiyi/roleverse/backend/internal/handler/auth"
	catalogHandler "github.com/chenweiyi/roleverse/backend/internal/handler/catalog"
	chatHandler "github.com/chenweiyi/roleverse/backend/internal/handler/chat"
	speechHandler "github.com/chenweiyi/roleverse/backend/internal/handler/speech"
	"github.com/chenweiyi/roleverse/backend/internal/handler/ws"
	middlewarePkg "github.com/chenweiyi/roleverse/backend/internal/middleware"
	authService "github.com/chenweiyi/roleverse/backend/internal/service/auth"
	catalogService "github.com/chenweiyi/roleverse/backend/internal/service/catalog"
	chatService "github.com/chenweiyi/roleverse/backend/internal/service/chat"
	speechService "github.com/chenweiyi/roleverse/backend/internal/service/speech"
	"github.com/chenweiyi/roleverse/backend/pkg/utils"
)

// Deps 路由依赖的全部服务。
type Deps struct {
	Auth     *authService.Service
	Catalog  catalogService.Store
	Sessions chatService.Store
	Speech   *speechService.Service
	Gateway  *ws.Gateway

	AllowedOrigins []string
	// TempDir 本地音频回退目录，经 /temp/ 对外可读。
	TempDir string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Route("/api", func(api chi.Router) {
		authHandler.New(deps.Auth).RegisterRoutes(api)
		catalogHandler.New(deps.Catalog, deps.Auth).RegisterRoutes(api)
		chatHandler.New(deps.Sessions, deps.Catalog, deps.Auth).RegisterRoutes(api)

		if deps.Speech != nil {
			speechHandler.New(deps.Speech).RegisterRoutes(api)
		}
	})

	r.Get("/ws/chat", deps.Gateway.ServeHTTP)

	// 对象存储不可用时音频落在本地临时目录，这里把它暴露出去。
	if deps.TempDir != "" {
		fileServer := http.StripPrefix("/temp/", http.FileServer(http.Dir(deps.TempDir)))
		r.Get("/temp/*", fileServer.ServeHTTP)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
