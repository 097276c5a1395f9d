package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 8*24*time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, 48*time.Hour, cfg.ResetTokenTTL())
	assert.Equal(t, 10*time.Minute, cfg.WeChatStateTTL())
	assert.Equal(t, int64(5*1024*1024), cfg.Avatar.MaxBytes())
	assert.Equal(t, 512, cfg.Avatar.OutputSize)
	assert.Equal(t, 800, cfg.ResourceImage.OutputSize)
	assert.Equal(t, time.Hour, cfg.Avatar.RateLimitWindow())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.EmailsEnabled())
	assert.False(t, cfg.ChatEnabled())
	assert.False(t, cfg.WeChatEnabled())
	assert.False(t, cfg.RedisEnabled())
	assert.Len(t, cfg.Warnings, 2)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
port: 9000
env: production
api_prefix: api/v2/
frontend_host: https://hub.example.com/
secret_key: s3cret
first_superuser_password: another-secret
backend_cors_origins: ["https://a.example.com", " "]
database:
  host: db
  name: hub
redis:
  host: cache
  db: 2
smtp:
  host: smtp.example.com
  from_email: noreply@example.com
llm:
  provider: Anthropic
  api_key: key
wechat:
  enabled: true
  app_id: wx
  app_secret: sec
metrics:
  enabled: false
  path: stats
`))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/api/v2", cfg.APIPrefix)
	assert.Equal(t, "https://hub.example.com", cfg.FrontendHost)
	assert.Equal(t, []string{"https://a.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.True(t, cfg.EmailsEnabled())
	assert.True(t, cfg.ChatEnabled())
	assert.True(t, cfg.WeChatEnabled())
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URLValue())
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/stats", cfg.Metrics.Path)
	assert.Equal(t, "AI Resource Hub", cfg.SMTP.FromName)
	assert.Empty(t, cfg.Warnings)
	assert.True(t, strings.HasPrefix(cfg.Database.DSNValue(), "root:password@tcp(db:3306)/hub?"))
}

func TestParseRejectsInsecureOutsideLocal(t *testing.T) {
	_, err := Parse([]byte("env: staging\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "changethis")
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("prot: 80\n"))
	assert.Error(t, err)
}

func TestParseValidates(t *testing.T) {
	for name, body := range map[string]string{
		"port":     "port: 70000\n",
		"env":      "env: dev\n",
		"storage":  "storage:\n  driver: ftp\n",
		"s3":       "storage:\n  driver: s3\n",
		"provider": "llm:\n  provider: local\n",
	} {
		_, err := Parse([]byte(body))
		assert.Error(t, err, name)
	}
}

func TestWeChatNeedsCredentials(t *testing.T) {
	cfg, err := Parse([]byte("wechat:\n  enabled: true\n  app_id: wx\n"))
	require.NoError(t, err)
	assert.False(t, cfg.WeChatEnabled())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8100\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8100, cfg.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestStoragePaths(t *testing.T) {
	cfg := &AppConfig{Storage: StorageConfig{Driver: "s3", S3: S3Config{Prefix: "hub"}}}
	assert.Equal(t, "hub/avatars", cfg.AvatarDir())
	assert.Equal(t, "hub/resource_images", cfg.ResourceImageDir())

	cfg = &AppConfig{Storage: StorageConfig{Driver: "local", SubmissionImagePath: "/srv/subs"}}
	assert.Equal(t, "/srv/subs", cfg.SubmissionImageDir())
}
