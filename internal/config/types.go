package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "local" | "staging" | "production"
	APIPrefix      string                `yaml:"api_prefix"`
	ProjectName    string                `yaml:"project_name"`
	FrontendHost   string                `yaml:"frontend_host"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Timezone       string                `yaml:"timezone"`
	Paths          RuntimePathsConfig    `yaml:"paths"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`

	SecretKey               string `yaml:"secret_key"`
	AccessTokenExpireMinute int    `yaml:"access_token_expire_minutes"`
	ResetTokenExpireHours   int    `yaml:"email_reset_token_expire_hours"`
	FirstSuperuser          string `yaml:"first_superuser"`
	FirstSuperuserPassword  string `yaml:"first_superuser_password"`

	SMTP            SMTPConfig      `yaml:"smtp"`
	LLM             LLMConfig       `yaml:"llm"`
	Storage         StorageConfig   `yaml:"storage"`
	Avatar          ImageConfig     `yaml:"avatar"`
	ResourceImage   ImageConfig     `yaml:"resource_image"`
	SubmissionImage ImageConfig     `yaml:"submission_image"`
	WeChat          WeChatConfig    `yaml:"wechat"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	Metrics         MetricsConfig   `yaml:"metrics"`

	// Warnings collects non-fatal findings from Load, logged once the logger exists.
	Warnings []string `yaml:"-"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type SMTPConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	TLS          bool   `yaml:"tls"`
	SSL          bool   `yaml:"ssl"`
	FromEmail    string `yaml:"from_email"`
	FromName     string `yaml:"from_name"`
	ResendAPIKey string `yaml:"resend_api_key"`
}

type LLMConfig struct {
	Provider       string  `yaml:"provider"` // "openai" | "anthropic"
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
}

type StorageConfig struct {
	Driver              string   `yaml:"driver"` // "local" | "s3"
	AvatarPath          string   `yaml:"avatar_path"`
	ResourceImagePath   string   `yaml:"resource_image_path"`
	SubmissionImagePath string   `yaml:"submission_image_path"`
	S3                  S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
}

type ImageConfig struct {
	MaxSizeMB         int `yaml:"max_size_mb"`
	MaxDimension      int `yaml:"max_dimension"`
	OutputSize        int `yaml:"output_size"`
	RateLimitAttempts int `yaml:"rate_limit_max_attempts"`
	RateLimitHours    int `yaml:"rate_limit_window_hours"`
}

type WeChatConfig struct {
	Enabled         bool   `yaml:"enabled"`
	AppID           string `yaml:"app_id"`
	AppSecret       string `yaml:"app_secret"`
	StateTTLMinutes int    `yaml:"state_ttl_minutes"`
	IntermediaryURL string `yaml:"intermediary_url"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type RuntimePathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
}

type rawAppConfig struct {
	Port                    int                `yaml:"port"`
	Env                     string             `yaml:"env"`
	Environment             string             `yaml:"environment"`
	APIPrefix               string             `yaml:"api_prefix"`
	ProjectName             string             `yaml:"project_name"`
	FrontendHost            string             `yaml:"frontend_host"`
	AllowedOrigins          []string           `yaml:"allowed_origins"`
	CORSOrigins             []string           `yaml:"backend_cors_origins"`
	Timezone                string             `yaml:"timezone"`
	Paths                   RuntimePathsConfig `yaml:"paths"`
	DSN                     string             `yaml:"dsn"`
	Database                rawDatabaseConfig  `yaml:"database"`
	RedisURL                string             `yaml:"redis_url"`
	Redis                   rawRedisConfig     `yaml:"redis"`
	SecretKey               string             `yaml:"secret_key"`
	AccessTokenExpireMinute int                `yaml:"access_token_expire_minutes"`
	ResetTokenExpireHours   int                `yaml:"email_reset_token_expire_hours"`
	FirstSuperuser          string             `yaml:"first_superuser"`
	FirstSuperuserPassword  string             `yaml:"first_superuser_password"`
	SMTP                    rawSMTPConfig      `yaml:"smtp"`
	LLM                     rawLLMConfig       `yaml:"llm"`
	Storage                 StorageConfig      `yaml:"storage"`
	Avatar                  ImageConfig        `yaml:"avatar"`
	ResourceImage           ImageConfig        `yaml:"resource_image"`
	SubmissionImage         ImageConfig        `yaml:"submission_image"`
	WeChat                  WeChatConfig       `yaml:"wechat"`
	RateLimit               RateLimitConfig    `yaml:"rate_limit"`
	Metrics                 rawMetricsConfig   `yaml:"metrics"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawSMTPConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	TLS          *bool  `yaml:"tls"`
	SSL          *bool  `yaml:"ssl"`
	FromEmail    string `yaml:"from_email"`
	FromName     string `yaml:"from_name"`
	ResendAPIKey string `yaml:"resend_api_key"`
}

type rawLLMConfig struct {
	Provider       string   `yaml:"provider"`
	APIKey         string   `yaml:"api_key"`
	BaseURL        string   `yaml:"base_url"`
	Model          string   `yaml:"model"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxTokens      int      `yaml:"max_tokens"`
	Temperature    *float64 `yaml:"temperature"`
}

type rawMetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}
