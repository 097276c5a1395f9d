package mail

import "github.com/ai-resource-hub/server/internal/config"

// BuildConfig maps the SMTP section of the app config onto a mail.Config.
func BuildConfig(cfg *config.AppConfig) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		Enable:    cfg.EmailsEnabled(),
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		User:      cfg.SMTP.User,
		Pass:      cfg.SMTP.Password,
		TLS:       cfg.SMTP.TLS,
		SSL:       cfg.SMTP.SSL,
		From:      cfg.SMTP.FromEmail,
		FromName:  cfg.SMTP.FromName,
		ResendKey: cfg.SMTP.ResendAPIKey,
	}
}
