package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLocalRateLimitBlocksBurst(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, 2, zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestLocalRateLimitSkipsAuthenticated(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(ContextKeyUserID, "u1") })
	r.Use(RateLimit(nil, 1, zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLocalLimiterSweepsIdleVisitors(t *testing.T) {
	l := &localLimiter{visitors: map[string]*visitor{}, perSecond: 1, lastSweep: time.Now()}
	now := time.Now()
	assert.True(t, l.allow("a", now))
	assert.Len(t, l.visitors, 1)

	later := now.Add(limiterIdleExpiry + time.Minute)
	assert.True(t, l.allow("b", later))
	assert.Len(t, l.visitors, 1)
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, 0, zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
