package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 8000
	defaultEnv        = EnvLocal
	defaultAPIPrefix  = "/api/v1"
	defaultProject    = "AI Resource Hub"
	defaultFrontend   = "http://localhost:5173"
	defaultSecret     = "changethis"

	defaultAccessTokenMinutes = 60 * 24 * 8
	defaultResetTokenHours    = 48

	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "resource_hub"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "UTC"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultSMTPPort = 587

	defaultLLMProvider    = "openai"
	defaultLLMModel       = "gpt-4o-mini"
	defaultLLMTimeout     = 30
	defaultLLMMaxTokens   = 300
	defaultLLMTemperature = 0.7

	defaultStorageDriver = "local"

	defaultImageMaxSizeMB     = 5
	defaultImageMaxDimension  = 4096
	defaultAvatarOutputSize   = 512
	defaultResourceOutputSize = 800
	defaultAvatarMaxAttempts  = 10
	defaultAvatarWindowHours  = 1

	defaultWeChatStateTTL = 10

	defaultRateLimitRPS = 50
	defaultMetricsPath  = "/metrics"

	// InsecureDefault is the placeholder value that must not survive outside local runs.
	InsecureDefault = "changethis"
)

const (
	EnvLocal      = "local"
	EnvStaging    = "staging"
	EnvProduction = "production"
)
