package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/config"
	"github.com/ai-resource-hub/server/internal/database"
	"github.com/ai-resource-hub/server/internal/middleware"
	pkgcron "github.com/ai-resource-hub/server/internal/pkg/cron"
	"github.com/ai-resource-hub/server/internal/pkg/llm"
	"github.com/ai-resource-hub/server/internal/pkg/mail"
	"github.com/ai-resource-hub/server/internal/pkg/metrics"
	pkgredis "github.com/ai-resource-hub/server/internal/pkg/redis"
	"github.com/ai-resource-hub/server/internal/pkg/storage"
	"github.com/ai-resource-hub/server/internal/pkg/wechat"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	rc     *pkgredis.Client
	stores *storage.Set
	mailer *mail.Sender
	llm    llm.Completer
	wechat *wechat.Client
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler
}

// New initializes the application: config → DB → Redis → storage → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.RedisEnabled() {
		rc, err = pkgredis.Connect(cfg.Redis.URLValue())
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Info("redis not configured, rate limiting is per process")
	}

	stores, err := storage.NewSet(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	a := &App{
		cfg:    cfg,
		db:     db,
		rc:     rc,
		stores: stores,
		mailer: mail.New(mail.BuildConfig(cfg)),
		logger: logger,
		sched:  pkgcron.New(),
	}
	if cfg.ChatEnabled() {
		a.llm, err = llm.New(cfg.LLM)
		if err != nil {
			logger.Warn("landing chat disabled", zap.Error(err))
		}
	}
	if cfg.WeChatEnabled() {
		a.wechat = wechat.New(cfg.WeChat.AppID, cfg.WeChat.AppSecret, wechat.WithLogger(logger.Named("wechat")))
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	if err := a.seed(ctx); err != nil {
		cancel()
		return nil, err
	}

	if cfg.IsLocal() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics(cfg.Metrics.Path))
	}
	router.Use(cors.New(corsConfig(cfg)))
	a.router = router

	if err := registerCronJobs(a.sched, db, cfg, logger); err != nil {
		cancel()
		return nil, fmt.Errorf("cron: %w", err)
	}
	a.sched.OnDone(metrics.RecordCronRun)
	a.sched.Start(ctx)

	a.registerRoutes()
	return a, nil
}

// seed creates the first superuser from config when that account is missing.
func (a *App) seed(ctx context.Context) error {
	if a.cfg.FirstSuperuser == "" {
		return nil
	}
	created, err := newUserService(a).EnsureSuperuser(ctx, a.cfg.FirstSuperuser, a.cfg.FirstSuperuserPassword)
	if err != nil {
		return fmt.Errorf("seed superuser: %w", err)
	}
	if created {
		a.logger.Info("first superuser created", zap.String("email", a.cfg.FirstSuperuser))
	}
	return nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and releases connections.
func (a *App) Shutdown() {
	a.cancel()
	a.sched.Stop()
	if a.rc != nil {
		if err := a.rc.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
