package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	pkgredis "github.com/ai-resource-hub/server/internal/pkg/redis"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

const (
	rateLimitWindow   = time.Second
	limiterIdleExpiry = 10 * time.Minute
	tooManyRequests   = "Too many requests, please slow down."
)

// RateLimit caps anonymous callers at perSecond requests per IP. Authenticated
// requests pass untouched. With a redis client the window is shared across
// instances; otherwise a per-process token bucket is used.
func RateLimit(rc *pkgredis.Client, perSecond int, log *zap.Logger) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if rc != nil {
		return redisRateLimit(rc, perSecond, log)
	}
	return localRateLimit(perSecond)
}

func redisRateLimit(rc *pkgredis.Client, perSecond int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if IsAuthenticated(c) || ip == "" {
			c.Next()
			return
		}

		key := fmt.Sprintf("hub:rate_limit:%s:%d", ip, time.Now().Unix())
		count, err := rc.IncrWindow(c.Request.Context(), key, rateLimitWindow)
		if err != nil {
			log.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count > int64(perSecond) {
			c.Header("Retry-After", "1")
			response.TooManyRequests(c, tooManyRequests)
			return
		}
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perSecond int
	lastSweep time.Time
}

func (l *localLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdleExpiry {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdleExpiry {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.perSecond), l.perSecond)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func localRateLimit(perSecond int) gin.HandlerFunc {
	l := &localLimiter{visitors: make(map[string]*visitor), perSecond: perSecond, lastSweep: time.Now()}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if IsAuthenticated(c) || ip == "" {
			c.Next()
			return
		}
		if !l.allow(ip, time.Now()) {
			c.Header("Retry-After", "1")
			response.TooManyRequests(c, tooManyRequests)
			return
		}
		c.Next()
	}
}
