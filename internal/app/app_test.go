package app

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-resource-hub/server/internal/config"
	"github.com/ai-resource-hub/server/internal/database/dbtest"
	pkgcron "github.com/ai-resource-hub/server/internal/pkg/cron"
)

func TestMatchOriginPattern(t *testing.T) {
	cases := []struct {
		pattern, host string
		want          bool
	}{
		{"hub.example.com", "hub.example.com", true},
		{"*.example.com", "api.example.com", true},
		{"*.example.com", "example.org", false},
		{"localhost:*", "localhost:5173", true},
		{"localhost:*", "127.0.0.1:5173", false},
		{"*", "anything", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matchOriginPattern(tc.pattern, tc.host), tc.pattern+" vs "+tc.host)
	}
}

func TestCORSIncludesFrontendHost(t *testing.T) {
	cfg := &config.AppConfig{Env: config.EnvProduction, FrontendHost: "https://hub.example.com"}
	c := corsConfig(cfg)
	assert.True(t, c.AllowOriginFunc("https://hub.example.com"))
	assert.False(t, c.AllowOriginFunc("https://evil.example.com"))

	cfg = &config.AppConfig{Env: config.EnvProduction}
	assert.False(t, corsConfig(cfg).AllowOriginFunc("https://hub.example.com"))
	cfg.Env = config.EnvLocal
	assert.True(t, corsConfig(cfg).AllowOriginFunc("http://localhost:3000"))
}

func TestParseTimezoneLocation(t *testing.T) {
	loc, err := parseTimezoneLocation("+08:00")
	require.NoError(t, err)
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 8*3600, offset)

	loc, err = parseTimezoneLocation("-05:30")
	require.NoError(t, err)
	_, offset = time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -(5*3600 + 30*60), offset)

	_, err = parseTimezoneLocation("Mars/Olympus")
	assert.Error(t, err)
}

func TestPurgeJobs(t *testing.T) {
	db, mock := dbtest.New(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM `wechat_login_attempts` WHERE expires_at < \\?").
		WithArgs(now.Add(-24 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := purgeWeChatAttempts(context.Background(), db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mock.ExpectExec("DELETE FROM `avatar_rate_limits` WHERE window_start < \\?").
		WithArgs(now.Add(-time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err = purgeAvatarRateLimits(context.Background(), db, now, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRegisterCronJobs(t *testing.T) {
	db, _ := dbtest.New(t)
	sched := pkgcron.New()
	cfg := &config.AppConfig{Avatar: config.ImageConfig{RateLimitHours: 1}}

	require.NoError(t, registerCronJobs(sched, db, cfg, zap.NewNop()))
	items := sched.List()
	require.Len(t, items, 2)
	assert.Equal(t, "purge_avatar_rate_limits", items[0].Name)
	assert.Equal(t, "purge_wechat_attempts", items[1].Name)
}
