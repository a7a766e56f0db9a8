// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateCollector(); err != nil {
		return err
	}
	if err := c.validateGeoIP(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateAuthz(); err != nil {
		return err
	}
	if err := c.validateEventBus(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateCollector() error {
	if err := validateHTTPURL(c.Collector.PublicOrigin, "COLLECTOR_ORIGIN"); err != nil {
		return err
	}
	if c.Collector.MaxBodyBytes < 64 {
		return fmt.Errorf("COLLECTOR_MAX_BODY_BYTES must be at least 64")
	}
	if c.Collector.RateLimitDisabled {
		return nil
	}
	return validateRateLimit("COLLECTOR_RATE_LIMIT", c.Collector.RateLimitReqs, c.Collector.RateLimitWindow)
}

func (c *Config) validateGeoIP() error {
	g := c.GeoIP
	if g.IPAPIEnabled {
		if err := validateEndpointURL(g.IPAPIBaseURL, "GEOIP_IPAPI_BASE_URL"); err != nil {
			return err
		}
		if g.IPAPIPerMinute < 1 {
			return fmt.Errorf("GEOIP_IPAPI_PER_MINUTE must be at least 1")
		}
	}
	if (g.MaxMindAccountID == "") != (g.MaxMindLicenseKey == "") {
		return fmt.Errorf("MAXMIND_ACCOUNT_ID and MAXMIND_LICENSE_KEY must be set together")
	}
	if g.Timeout <= 0 {
		return fmt.Errorf("GEOIP_TIMEOUT must be positive")
	}
	if g.CacheSize < 1 {
		return fmt.Errorf("GEOIP_CACHE_SIZE must be at least 1")
	}
	if g.CacheTTL < time.Minute {
		return fmt.Errorf("GEOIP_CACHE_TTL must be at least 1m")
	}
	if g.Badger.Enabled && strings.TrimSpace(g.Badger.Path) == "" {
		return fmt.Errorf("GEOIP_BADGER_PATH is required when GEOIP_BADGER_ENABLED is true")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.AuthDisabled && c.IsProduction() {
		return fmt.Errorf("AUTH_DISABLED=true is not allowed when ENVIRONMENT=production. " +
			"Set JWT_SECRET or use ENVIRONMENT=development for testing purposes")
	}
	if !c.Security.AuthDisabled {
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
		if c.Security.SessionTimeout < time.Minute {
			return fmt.Errorf("SESSION_TIMEOUT must be at least 1m")
		}
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	return validateRateLimit("RATE_LIMIT", c.Security.RateLimitReqs, c.Security.RateLimitWindow)
}

func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required unless AUTH_DISABLED is true")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

// validateCORS rejects wildcard dashboard CORS in production with auth on.
// The collector endpoint has its own permissive CORS and is unaffected.
func (c *Config) validateCORS() error {
	if !c.Security.AuthDisabled && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled. " +
			"Set specific origins: CORS_ORIGINS=https://dashboard.example.com")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup
func (c *Config) ShouldWarnAboutCORS() bool {
	return !c.Security.AuthDisabled && c.hasWildcardCORS()
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func validateRateLimit(prefix string, reqs int, window time.Duration) error {
	if reqs < minRateLimitRequests || reqs > maxRateLimitRequests {
		return fmt.Errorf("%s_REQS must be between %d and %d", prefix, minRateLimitRequests, maxRateLimitRequests)
	}
	if window < minRateLimitWindow || window > maxRateLimitWindow {
		return fmt.Errorf("%s_WINDOW must be between %v and %v", prefix, minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validRoles = map[string]bool{
	"viewer": true,
	"editor": true,
	"admin":  true,
}

func (c *Config) validateAuthz() error {
	if !validRoles[c.Authz.DefaultRole] {
		return fmt.Errorf("AUTHZ_DEFAULT_ROLE must be one of: viewer, editor, admin")
	}
	if (c.Authz.ModelPath == "") != (c.Authz.PolicyPath == "") {
		return fmt.Errorf("AUTHZ_MODEL_PATH and AUTHZ_POLICY_PATH must be set together")
	}
	if c.Authz.CacheTTL < 0 {
		return fmt.Errorf("AUTHZ_CACHE_TTL must not be negative")
	}
	return nil
}

func (c *Config) validateEventBus() error {
	switch c.EventBus.Backend {
	case "gochannel":
		return nil
	case "nats":
	default:
		return fmt.Errorf("EVENTBUS_BACKEND must be one of: gochannel, nats")
	}

	n := c.EventBus.NATS
	if err := validateNATSURL(n.URL); err != nil {
		return fmt.Errorf("NATS_URL: %w", err)
	}
	if n.Embedded {
		if n.Port < 1 || n.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 1 and 65535")
		}
		if strings.TrimSpace(n.StoreDir) == "" {
			return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED is true")
		}
	}
	if strings.TrimSpace(n.Stream) == "" {
		return fmt.Errorf("NATS_STREAM is required")
	}
	if strings.TrimSpace(n.Durable) == "" {
		return fmt.Errorf("NATS_DURABLE is required")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be at least API_DEFAULT_PAGE_SIZE")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// placeholderPatterns flag values the operator forgot to replace.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
