package util

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/cron"
	"github.com/ai-resource-hub/server/internal/pkg/mail"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("down") }

func newRouter(d Deps, superuser bool) *gin.Engine {
	u := &models.UserModel{Base: models.Base{ID: "u1"}, Email: "root@example.com", IsActive: true, IsSuperuser: superuser}
	auth := func(c *gin.Context) {
		c.Set(middleware.ContextKeyUser, u)
		c.Set(middleware.ContextKeyUserID, u.ID)
		c.Next()
	}
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), d, auth)
	return r
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := do(newRouter(Deps{}, false), http.MethodGet, "/api/v1/utils/health-check/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Body.String())
}

func TestHealthReportDegraded(t *testing.T) {
	rec := do(newRouter(Deps{Redis: downPinger{}}, false), http.MethodGet, "/api/v1/utils/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","database":false,"redis":false}`, rec.Body.String())
}

func TestTestEmailRequiresSuperuser(t *testing.T) {
	rec := do(newRouter(Deps{}, false), http.MethodPost, "/api/v1/utils/test-email/?email_to=a@example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "enough privileges")
}

func TestTestEmailDisabled(t *testing.T) {
	r := newRouter(Deps{Mailer: mail.New(mail.Config{})}, true)

	rec := do(r, http.MethodPost, "/api/v1/utils/test-email/?email_to=not-an-email")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(r, http.MethodPost, "/api/v1/utils/test-email/?email_to=a@example.com")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Emails are not enabled")
}

func TestCronConsole(t *testing.T) {
	sched := cron.New()
	ran := false
	require.NoError(t, sched.Register(cron.Job{Name: "purge", Spec: "@every 1h", Fn: func(context.Context) error {
		ran = true
		return nil
	}}))
	r := newRouter(Deps{Scheduler: sched}, true)

	rec := do(r, http.MethodGet, "/api/v1/utils/cron")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"purge"`)

	rec = do(r, http.MethodPost, "/api/v1/utils/cron/purge/run")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)

	rec = do(r, http.MethodPost, "/api/v1/utils/cron/nope/run")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
