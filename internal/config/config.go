package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at configPath, applies it over the defaults and
// validates the result.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML content into an AppConfig.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	applyRawAppConfig(&cfg, raw)
	normalizeAppConfig(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *AppConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", cfg.Database.Port)
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", cfg.Redis.DB)
	}
	switch cfg.Env {
	case EnvLocal, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("invalid env %q, expected local, staging or production", cfg.Env)
	}
	switch cfg.Storage.Driver {
	case "local":
	case "s3":
		s3 := cfg.Storage.S3
		if s3.Bucket == "" || s3.Region == "" {
			return fmt.Errorf("storage.s3 requires bucket and region")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q, expected local or s3", cfg.Storage.Driver)
	}
	switch cfg.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("invalid llm.provider %q, expected openai or anthropic", cfg.LLM.Provider)
	}

	for name, value := range map[string]string{
		"secret_key":               cfg.SecretKey,
		"first_superuser_password": cfg.FirstSuperuserPassword,
	} {
		if value != InsecureDefault {
			continue
		}
		msg := fmt.Sprintf("the value of %s is %q, for security, please change it", name, InsecureDefault)
		if cfg.Env != EnvLocal {
			return fmt.Errorf("%s", msg)
		}
		cfg.Warnings = append(cfg.Warnings, msg)
	}
	return nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:         defaultPort,
		Env:          defaultEnv,
		APIPrefix:    defaultAPIPrefix,
		ProjectName:  defaultProject,
		FrontendHost: defaultFrontend,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		SecretKey:               defaultSecret,
		AccessTokenExpireMinute: defaultAccessTokenMinutes,
		ResetTokenExpireHours:   defaultResetTokenHours,
		FirstSuperuser:          "admin@example.com",
		FirstSuperuserPassword:  defaultSecret,
		SMTP: SMTPConfig{
			Port: defaultSMTPPort,
			TLS:  true,
		},
		LLM: LLMConfig{
			Provider:       defaultLLMProvider,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeout,
			MaxTokens:      defaultLLMMaxTokens,
			Temperature:    defaultLLMTemperature,
		},
		Storage: StorageConfig{Driver: defaultStorageDriver},
		Avatar: ImageConfig{
			MaxSizeMB:         defaultImageMaxSizeMB,
			MaxDimension:      defaultImageMaxDimension,
			OutputSize:        defaultAvatarOutputSize,
			RateLimitAttempts: defaultAvatarMaxAttempts,
			RateLimitHours:    defaultAvatarWindowHours,
		},
		ResourceImage: ImageConfig{
			MaxSizeMB:    defaultImageMaxSizeMB,
			MaxDimension: defaultImageMaxDimension,
			OutputSize:   defaultResourceOutputSize,
		},
		SubmissionImage: ImageConfig{
			MaxSizeMB:    defaultImageMaxSizeMB,
			MaxDimension: defaultImageMaxDimension,
			OutputSize:   defaultResourceOutputSize,
		},
		WeChat:    WeChatConfig{StateTTLMinutes: defaultWeChatStateTTL},
		RateLimit: RateLimitConfig{RequestsPerSecond: defaultRateLimitRPS},
		Metrics:   MetricsConfig{Enabled: true, Path: defaultMetricsPath},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.Environment); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.APIPrefix); v != "" {
		cfg.APIPrefix = v
	}
	if v := strings.TrimSpace(raw.ProjectName); v != "" {
		cfg.ProjectName = v
	}
	if v := strings.TrimSpace(raw.FrontendHost); v != "" {
		cfg.FrontendHost = v
	}
	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSOrigins)
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.Paths.Static); v != "" {
		cfg.Paths.Static = v
	}

	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)

	if v := strings.TrimSpace(raw.SecretKey); v != "" {
		cfg.SecretKey = v
	}
	if raw.AccessTokenExpireMinute > 0 {
		cfg.AccessTokenExpireMinute = raw.AccessTokenExpireMinute
	}
	if raw.ResetTokenExpireHours > 0 {
		cfg.ResetTokenExpireHours = raw.ResetTokenExpireHours
	}
	if v := strings.TrimSpace(raw.FirstSuperuser); v != "" {
		cfg.FirstSuperuser = v
	}
	if v := strings.TrimSpace(raw.FirstSuperuserPassword); v != "" {
		cfg.FirstSuperuserPassword = v
	}

	cfg.SMTP = applyRawSMTPConfig(cfg.SMTP, raw.SMTP)
	cfg.LLM = applyRawLLMConfig(cfg.LLM, raw.LLM)
	cfg.Storage = applyRawStorageConfig(cfg.Storage, raw.Storage)
	cfg.Avatar = applyRawImageConfig(cfg.Avatar, raw.Avatar)
	cfg.ResourceImage = applyRawImageConfig(cfg.ResourceImage, raw.ResourceImage)
	cfg.SubmissionImage = applyRawImageConfig(cfg.SubmissionImage, raw.SubmissionImage)

	cfg.WeChat.Enabled = raw.WeChat.Enabled
	if v := strings.TrimSpace(raw.WeChat.AppID); v != "" {
		cfg.WeChat.AppID = v
	}
	if v := strings.TrimSpace(raw.WeChat.AppSecret); v != "" {
		cfg.WeChat.AppSecret = v
	}
	if raw.WeChat.StateTTLMinutes > 0 {
		cfg.WeChat.StateTTLMinutes = raw.WeChat.StateTTLMinutes
	}
	if v := strings.TrimSpace(raw.WeChat.IntermediaryURL); v != "" {
		cfg.WeChat.IntermediaryURL = v
	}

	if raw.RateLimit.RequestsPerSecond > 0 {
		cfg.RateLimit.RequestsPerSecond = raw.RateLimit.RequestsPerSecond
	}
	if raw.Metrics.Enabled != nil {
		cfg.Metrics.Enabled = *raw.Metrics.Enabled
	}
	if v := strings.TrimSpace(raw.Metrics.Path); v != "" {
		cfg.Metrics.Path = v
	}
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	db := raw.Database
	if v := strings.TrimSpace(raw.DSN); v != "" {
		current.DSN = v
	}
	if v := strings.TrimSpace(db.DSN); v != "" {
		current.DSN = v
	}
	if v := strings.TrimSpace(db.Host); v != "" {
		current.Host = v
	}
	if db.Port != 0 {
		current.Port = db.Port
	}
	if v := strings.TrimSpace(db.User); v != "" {
		current.User = v
	}
	if db.Password != "" {
		current.Password = db.Password
	}
	if v := strings.TrimSpace(db.Name); v != "" {
		current.Name = v
	}
	if v := strings.TrimSpace(db.Charset); v != "" {
		current.Charset = v
	}
	if db.ParseTime != nil {
		current.ParseTime = *db.ParseTime
	}
	if v := strings.TrimSpace(db.Loc); v != "" {
		current.Loc = v
	}
	if db.Params != nil {
		current.Params = copyStringMap(db.Params)
	}
	return current
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	r := raw.Redis
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		current.URL = v
	}
	if v := strings.TrimSpace(r.URL); v != "" {
		current.URL = v
	}
	if v := strings.TrimSpace(r.Host); v != "" {
		current.Host = v
	}
	if r.Port != 0 {
		current.Port = r.Port
	}
	if v := strings.TrimSpace(r.Username); v != "" {
		current.Username = v
	}
	if r.Password != "" {
		current.Password = r.Password
	}
	if r.DB != nil {
		current.DB = *r.DB
	}
	if r.TLS != nil {
		current.TLS = *r.TLS
	}
	return current
}

func applyRawSMTPConfig(current SMTPConfig, raw rawSMTPConfig) SMTPConfig {
	if v := strings.TrimSpace(raw.Host); v != "" {
		current.Host = v
	}
	if raw.Port != 0 {
		current.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.User); v != "" {
		current.User = v
	}
	if raw.Password != "" {
		current.Password = raw.Password
	}
	if raw.TLS != nil {
		current.TLS = *raw.TLS
	}
	if raw.SSL != nil {
		current.SSL = *raw.SSL
	}
	if v := strings.TrimSpace(raw.FromEmail); v != "" {
		current.FromEmail = v
	}
	if v := strings.TrimSpace(raw.FromName); v != "" {
		current.FromName = v
	}
	if v := strings.TrimSpace(raw.ResendAPIKey); v != "" {
		current.ResendAPIKey = v
	}
	return current
}

func applyRawLLMConfig(current LLMConfig, raw rawLLMConfig) LLMConfig {
	if v := strings.TrimSpace(raw.Provider); v != "" {
		current.Provider = v
	}
	if v := strings.TrimSpace(raw.APIKey); v != "" {
		current.APIKey = v
	}
	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		current.BaseURL = v
	}
	if v := strings.TrimSpace(raw.Model); v != "" {
		current.Model = v
	}
	if raw.TimeoutSeconds > 0 {
		current.TimeoutSeconds = raw.TimeoutSeconds
	}
	if raw.MaxTokens > 0 {
		current.MaxTokens = raw.MaxTokens
	}
	if raw.Temperature != nil {
		current.Temperature = *raw.Temperature
	}
	return current
}

func applyRawStorageConfig(current StorageConfig, raw StorageConfig) StorageConfig {
	if v := strings.TrimSpace(raw.Driver); v != "" {
		current.Driver = v
	}
	if v := strings.TrimSpace(raw.AvatarPath); v != "" {
		current.AvatarPath = v
	}
	if v := strings.TrimSpace(raw.ResourceImagePath); v != "" {
		current.ResourceImagePath = v
	}
	if v := strings.TrimSpace(raw.SubmissionImagePath); v != "" {
		current.SubmissionImagePath = v
	}
	current.S3 = raw.S3
	return current
}

func applyRawImageConfig(current ImageConfig, raw ImageConfig) ImageConfig {
	if raw.MaxSizeMB > 0 {
		current.MaxSizeMB = raw.MaxSizeMB
	}
	if raw.MaxDimension > 0 {
		current.MaxDimension = raw.MaxDimension
	}
	if raw.OutputSize > 0 {
		current.OutputSize = raw.OutputSize
	}
	if raw.RateLimitAttempts > 0 {
		current.RateLimitAttempts = raw.RateLimitAttempts
	}
	if raw.RateLimitHours > 0 {
		current.RateLimitHours = raw.RateLimitHours
	}
	return current
}
