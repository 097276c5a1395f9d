package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ai-resource-hub/server/internal/config"
	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/modules/auth/login"
	"github.com/ai-resource-hub/server/internal/modules/auth/user"
	"github.com/ai-resource-hub/server/internal/modules/auth/wechatlogin"
	"github.com/ai-resource-hub/server/internal/modules/chat/landing"
	"github.com/ai-resource-hub/server/internal/modules/chat/transcript"
	"github.com/ai-resource-hub/server/internal/modules/content/category"
	"github.com/ai-resource-hub/server/internal/modules/content/comment"
	"github.com/ai-resource-hub/server/internal/modules/content/resource"
	"github.com/ai-resource-hub/server/internal/modules/content/submission"
	"github.com/ai-resource-hub/server/internal/modules/storage/images"
	"github.com/ai-resource-hub/server/internal/modules/system/private"
	"github.com/ai-resource-hub/server/internal/modules/system/util"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc"
	"github.com/ai-resource-hub/server/internal/pkg/metrics"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

func newUserService(a *App) *user.Service {
	return user.NewService(a.db, a.stores.Avatars, a.logger.Named("user"))
}

// imageOptions maps an upload section of the config. Handlers pick the mode.
func imageOptions(c config.ImageConfig) imageproc.Options {
	return imageproc.Options{MaxBytes: c.MaxBytes(), MaxDimension: c.MaxDimension, OutputSize: c.OutputSize}
}

func (a *App) registerRoutes() {
	r := a.router
	cfg := a.cfg
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.OptionalAuth(db))
	api.Use(middleware.RateLimit(a.rc, cfg.RateLimit.RequestsPerSecond, a.logger.Named("ratelimit")))

	// Shared services
	users := newUserService(a)
	tokens := login.NewService(users, login.Options{
		AccessTTL:    cfg.AccessTokenTTL(),
		ResetTTL:     cfg.ResetTokenTTL(),
		ProjectName:  cfg.ProjectName,
		FrontendHost: cfg.FrontendHost,
	})
	comments := comment.NewService(db)
	resources := resource.NewService(db, a.stores.ResourceImages, a.logger.Named("resource"))
	submissions := submission.NewService(db, a.stores.SubmissionImages, resources, a.logger.Named("submission"))

	// Accounts
	login.NewHandler(tokens, a.mailer, cfg.APIPrefix, a.logger.Named("login")).RegisterRoutes(api, authMW)
	user.NewHandler(users, a.mailer, user.Options{
		APIPrefix:    cfg.APIPrefix,
		ProjectName:  cfg.ProjectName,
		FrontendHost: cfg.FrontendHost,
		Avatar:       imageOptions(cfg.Avatar),
		AvatarLimit:  user.AvatarLimit{MaxAttempts: cfg.Avatar.RateLimitAttempts, Window: cfg.Avatar.RateLimitWindow()},
	}, a.logger.Named("user")).RegisterRoutes(api, authMW)

	var wechatSvc *wechatlogin.Service
	if a.wechat != nil {
		wechatSvc = wechatlogin.NewService(db, a.wechat, users, tokens, wechatlogin.Options{
			StateTTL:        cfg.WeChatStateTTL(),
			FrontendHost:    cfg.FrontendHost,
			IntermediaryURL: cfg.WeChat.IntermediaryURL,
			EmailsEnabled:   cfg.EmailsEnabled(),
		}, a.logger.Named("wechat"))
	}
	wechatlogin.NewHandler(wechatSvc, cfg.WeChatEnabled()).RegisterRoutes(api, authMW)

	// Catalog
	category.NewHandler(category.NewService(db)).RegisterRoutes(api, authMW)
	resource.NewHandler(resources, comments, cfg.APIPrefix, imageOptions(cfg.ResourceImage)).RegisterRoutes(api, authMW)
	submission.NewHandler(submissions, comments, cfg.APIPrefix, imageOptions(cfg.SubmissionImage)).RegisterRoutes(api, authMW)
	comment.NewHandler(comments).RegisterRoutes(api, authMW)
	images.NewHandler(db, a.stores).RegisterRoutes(api)

	// Chat
	landing.NewHandler(landing.NewService(db, a.llm, a.logger.Named("landing"))).RegisterRoutes(api)
	transcript.NewHandler(transcript.NewService(db)).RegisterRoutes(api, authMW)

	// System
	deps := util.Deps{
		DB:          db,
		Scheduler:   a.sched,
		Mailer:      a.mailer,
		ProjectName: cfg.ProjectName,
		Log:         a.logger.Named("util"),
	}
	if a.rc != nil {
		deps.Redis = a.rc
	}
	util.RegisterRoutes(api, deps, authMW)
	if cfg.IsLocal() {
		private.RegisterRoutes(api, users, cfg.APIPrefix)
	}
}
