// Package util serves the operational endpoints: liveness, a database
// backed health report, the scheduled job console and the test email.
package util

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/pkg/cron"
	"github.com/ai-resource-hub/server/internal/pkg/mail"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

const privilegeMessage = "The user doesn't have enough privileges"

// Pinger is any dependency the health report probes besides the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	DB          *gorm.DB
	Redis       Pinger
	Scheduler   *cron.Scheduler
	Mailer      *mail.Sender
	ProjectName string
	Log         *zap.Logger
}

type testEmailQuery struct {
	EmailTo string `form:"email_to" binding:"required,email"`
}

func RegisterRoutes(rg *gin.RouterGroup, d Deps, authMW gin.HandlerFunc) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	g := rg.Group("/utils")

	g.GET("/health-check/", func(c *gin.Context) {
		response.OK(c, true)
	})

	g.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbOK := false
		if d.DB != nil {
			if sqlDB, err := d.DB.DB(); err == nil {
				dbOK = sqlDB.PingContext(ctx) == nil
			}
		}
		body := gin.H{"database": dbOK}
		healthy := dbOK
		if d.Redis != nil {
			redisOK := d.Redis.Ping(ctx) == nil
			body["redis"] = redisOK
			healthy = healthy && redisOK
		}

		code := http.StatusOK
		body["status"] = "ok"
		if !healthy {
			code = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		c.JSON(code, body)
	})

	admin := g.Group("", authMW, middleware.Superuser(privilegeMessage))

	admin.POST("/test-email/", func(c *gin.Context) {
		var q testEmailQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			response.UnprocessableEntity(c, err.Error())
			return
		}
		if !d.Mailer.Enabled() {
			response.UnprocessableEntity(c, "Emails are not enabled")
			return
		}
		email, err := mail.RenderTestEmail(mail.TemplateData{ProjectName: d.ProjectName, Email: q.EmailTo})
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if err := d.Mailer.Send(mail.Message{To: []string{q.EmailTo}, Subject: email.Subject, HTML: email.HTML}); err != nil {
			d.Log.Warn("test email failed", zap.Error(err))
			response.UnprocessableEntity(c, err.Error())
			return
		}
		c.JSON(http.StatusCreated, response.MessageResponse{Message: "Test email sent"})
	})

	if d.Scheduler == nil {
		return
	}
	admin.GET("/cron", func(c *gin.Context) {
		response.OK(c, d.Scheduler.List())
	})
	admin.POST("/cron/:name/run", func(c *gin.Context) {
		if err := d.Scheduler.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.Message(c, "Job finished")
	})
}
