package app

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"

	"github.com/ai-resource-hub/server/internal/config"
)

// corsConfig allows the frontend host and every allowed_origins pattern.
// With neither configured only local environments accept any origin.
func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}
	origins := append([]string{}, cfg.AllowedOrigins...)
	if cfg.FrontendHost != "" {
		origins = append(origins, extractOriginHost(cfg.FrontendHost))
	}
	if len(origins) == 0 {
		c.AllowOriginFunc = func(string) bool { return cfg.IsLocal() }
		return c
	}
	c.AllowOriginFunc = func(origin string) bool {
		host := extractOriginHost(origin)
		for _, pattern := range origins {
			if matchOriginPattern(extractOriginHost(pattern), host) {
				return true
			}
		}
		return false
	}
	return c
}

// extractOriginHost returns the "host[:port]" part of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(origin)
	}
	return u.Host
}

// matchOriginPattern supports exact hosts, "*.example.com" and "localhost:*".
func matchOriginPattern(pattern, host string) bool {
	switch {
	case pattern == "*", pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
