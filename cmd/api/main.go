package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/chenweiyi/roleverse/backend/internal/config"
	"github.com/chenweiyi/roleverse/backend/internal/handler"
	"github.com/chenweiyi/roleverse/backend/internal/handler/ws"
	catalogModel "github.com/chenweiyi/roleverse/backend/internal/model/catalog"
	"github.com/chenweiyi/roleverse/backend/internal/platform/mysql"
	redisPlatform "github.com/chenweiyi/roleverse/backend/internal/platform/redis"
	"github.com/chenweiyi/roleverse/backend/internal/service/ai"
	authService "github.com/chenweiyi/roleverse/backend/internal/service/auth"
	catalogService "github.com/chenweiyi/roleverse/backend/internal/service/catalog"
	chatService "github.com/chenweiyi/roleverse/backend/internal/service/chat"
	"github.com/chenweiyi/roleverse/backend/internal/service/speech"
	"github.com/chenweiyi/roleverse/backend/internal/service/storage"
	"github.com/chenweiyi/roleverse/backend/internal/service/turn"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// 持久层：配置了 MySQL 走数据库，否则退化为内存存储（开发模式）。
	var (
		authStore    authService.Store
		catalogStore catalogService.Store
		sessionStore chatService.Store
	)
	if cfg.MySQL.Enabled() {
		db, err := mysql.New(ctx, cfg.MySQL.DSN(), cfg.MySQL.MaxConns)
		if err != nil {
			log.Fatalf("failed to connect to mysql: %v", err)
		}
		authStore = authService.NewGormStore(db)
		gormCatalog := catalogService.NewGormStore(db)
		if err := gormCatalog.Seed(ctx); err != nil {
			log.Printf("warning: failed to seed catalog: %v", err)
		}
		catalogStore = gormCatalog
		sessionStore = chatService.NewGormStore(db)
		log.Println("MySQL storage initialized")
	} else {
		authStore = authService.NewMemoryStore()
		catalogStore = catalogService.NewMemoryStore(catalogModel.DefaultCharacters(), catalogModel.DefaultScenes())
		sessionStore = chatService.NewMemoryStore()
		log.Println("DB_HOST 未配置，使用内存存储（重启后数据丢失）")
	}

	// 历史缓存：Redis 可选，未配置时直接读库。
	if cfg.Redis.Enabled() {
		rdb, err := redisPlatform.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("warning: failed to connect to redis: %v", err)
		} else {
			sessionStore = chatService.NewCachedStore(sessionStore, rdb, cfg.Redis.HistoryTTL)
			log.Println("Redis history cache enabled")
		}
	}

	authSvc := authService.NewService(authStore, cfg.Auth)

	// 对象存储：不可用时上传退化为本地临时目录。
	var objectStore storage.ObjectStorage
	if cfg.Storage.Enabled() {
		s3Store, err := storage.NewS3Storage(ctx, cfg.Storage)
		if err != nil {
			log.Printf("warning: failed to initialize object storage: %v", err)
		} else {
			objectStore = s3Store
			log.Println("Object storage initialized")
		}
	} else {
		log.Println("OSS 凭证未配置，音频将保存到本地临时目录")
	}
	uploader := storage.NewUploader(objectStore, cfg.Server.TempDir, cfg.Server.PublicURL,
		cfg.Storage.KeyPrefix, cfg.Storage.Retries, cfg.Storage.Backoff)

	sweeper := storage.NewSweeper(objectStore, cfg.Server.TempDir, cfg.Storage.KeyPrefix,
		cfg.Storage.SweepTTL, cfg.Storage.LocalTTL)
	sweeper.Start(ctx)

	// 大模型：凭证缺失时补全降级为兜底话术。
	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing without AI functionality - 请检查 Ark 模型相关环境变量")
		} else {
			log.Println("Chat model initialized successfully")
		}
	} else {
		log.Println("Ark 凭证未配置，补全将始终返回兜底话术")
	}

	speechSvc := speech.NewService(cfg.Voice)
	if !cfg.Voice.Enabled() {
		log.Println("QINIU_API_KEY 未配置，语音识别与合成不可用")
	}

	orchestrator := turn.NewOrchestrator(
		sessionStore,
		catalogStore,
		uploader,
		speechSvc.Transcriber,
		speechSvc.Synthesizer,
		ai.NewAssembler(cfg.AI.HistoryLimit),
		ai.NewCompleter(chatModel, cfg.AI.FallbackReply),
	)

	var speechForRoutes *speech.Service
	if cfg.Voice.Enabled() {
		speechForRoutes = speechSvc
	}

	router := handler.NewRouter(handler.Deps{
		Auth:           authSvc,
		Catalog:        catalogStore,
		Sessions:       sessionStore,
		Speech:         speechForRoutes,
		Gateway:        ws.NewGateway(orchestrator),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TempDir:        cfg.Server.TempDir,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Roleverse backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
