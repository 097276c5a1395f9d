package config

import (
	"strings"
	"time"
)

func normalizeAppConfig(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.APIPrefix = normalizeAPIPrefix(cfg.APIPrefix)
	cfg.FrontendHost = strings.TrimRight(strings.TrimSpace(cfg.FrontendHost), "/")
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.LLM.BaseURL = strings.TrimRight(cfg.LLM.BaseURL, "/")
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Storage.S3.Prefix = strings.Trim(strings.TrimSpace(cfg.Storage.S3.Prefix), "/")
	cfg.WeChat.IntermediaryURL = strings.TrimSpace(cfg.WeChat.IntermediaryURL)
	if cfg.SMTP.FromName == "" {
		cfg.SMTP.FromName = cfg.ProjectName
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		cfg.Metrics.Path = "/" + cfg.Metrics.Path
	}
}

func normalizeDatabaseConfig(cfg DatabaseRuntimeConfig) DatabaseRuntimeConfig {
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Charset = strings.TrimSpace(cfg.Charset)
	cfg.Loc = strings.TrimSpace(cfg.Loc)

	if cfg.Host == "" {
		cfg.Host = defaultDBHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultDBPort
	}
	if cfg.User == "" {
		cfg.User = defaultDBUser
	}
	if cfg.Name == "" {
		cfg.Name = defaultDBName
	}
	if cfg.Charset == "" {
		cfg.Charset = defaultDBCharset
	}
	if cfg.Loc == "" {
		cfg.Loc = defaultDBLoc
	}
	return cfg
}

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	cfg.URL = normalizeRedisRawURL(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	if cfg.Port == 0 {
		cfg.Port = defaultRedisPort
	}
	return cfg
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "://") {
		return "redis://" + trimmed
	}
	return trimmed
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}

func normalizeAPIPrefix(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return trimmed
}

func copyStringMap(input map[string]string) map[string]string {
	out := make(map[string]string, len(input))
	for k, v := range input {
		out[k] = v
	}
	return out
}

func (c *AppConfig) IsLocal() bool {
	return c.Env == EnvLocal
}

// EmailsEnabled reports whether outgoing mail is configured.
func (c *AppConfig) EmailsEnabled() bool {
	return c.SMTP.FromEmail != "" && (c.SMTP.Host != "" || c.SMTP.ResendAPIKey != "")
}

// ChatEnabled reports whether the landing chat has an LLM to talk to.
func (c *AppConfig) ChatEnabled() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

// WeChatEnabled reports whether WeChat login is switched on and fully configured.
func (c *AppConfig) WeChatEnabled() bool {
	return c.WeChat.Enabled && c.WeChat.AppID != "" && c.WeChat.AppSecret != ""
}

// RedisEnabled reports whether a redis endpoint was configured.
func (c *AppConfig) RedisEnabled() bool {
	return c.Redis.URL != "" || c.Redis.Host != ""
}

func (c *AppConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinute) * time.Minute
}

func (c *AppConfig) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenExpireHours) * time.Hour
}

func (c *AppConfig) WeChatStateTTL() time.Duration {
	return time.Duration(c.WeChat.StateTTLMinutes) * time.Minute
}

// MaxBytes returns the upload size limit in bytes.
func (c ImageConfig) MaxBytes() int64 {
	return int64(c.MaxSizeMB) * 1024 * 1024
}

func (c ImageConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitHours) * time.Hour
}
