package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// The API only ever returns JSON, so nothing may be framed, scripted or
// loaded from a response.
const (
	apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"
	apiPermissionsPolicy     = "camera=(), geolocation=(), microphone=(), payment=(), usb=()"
)

// SecurityConfig controls the response security headers.
type SecurityConfig struct {
	HSTS                  bool
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	// ContentSecurityPolicy and PermissionsPolicy are omitted when empty.
	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// DefaultSecurityConfig leaves HSTS off; it is only safe behind TLS.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,
		ContentSecurityPolicy: apiContentSecurityPolicy,
		PermissionsPolicy:     apiPermissionsPolicy,
	}
}

// Secure sets security headers with DefaultSecurityConfig.
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig sets security headers on every response.
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	headers := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	}
	if cfg.ContentSecurityPolicy != "" {
		headers["Content-Security-Policy"] = cfg.ContentSecurityPolicy
	}
	if cfg.PermissionsPolicy != "" {
		headers["Permissions-Policy"] = cfg.PermissionsPolicy
	}
	if cfg.HSTS {
		hsts := fmt.Sprintf("max-age=%d", int64(cfg.HSTSMaxAge.Seconds()))
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		headers["Strict-Transport-Security"] = hsts
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range headers {
			h.Set(k, v)
		}
		c.Next()
	}
}
