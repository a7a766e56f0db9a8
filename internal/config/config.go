// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

// Package config loads Beacon's configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Collector CollectorConfig `koanf:"collector"`
	GeoIP     GeoIPConfig     `koanf:"geoip"`
	Security  SecurityConfig  `koanf:"security"`
	Authz     AuthzConfig     `koanf:"authz"`
	EventBus  EventBusConfig  `koanf:"eventbus"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// CollectorConfig holds settings of the public collector endpoint.
type CollectorConfig struct {
	// PublicOrigin is the externally reachable origin of the collector, shown
	// in project overviews so owners can build the embed snippet.
	PublicOrigin string `koanf:"public_origin"`

	// RateLimitReqs per RateLimitWindow per client address on POST /events.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// MaxBodyBytes caps the collector request body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// GeoIPConfig holds geolocation enrichment settings.
type GeoIPConfig struct {
	IPAPIEnabled      bool          `koanf:"ipapi_enabled"`
	IPAPIBaseURL      string        `koanf:"ipapi_base_url"`
	IPAPIPerMinute    int           `koanf:"ipapi_per_minute"`
	MaxMindAccountID  string        `koanf:"maxmind_account_id"`
	MaxMindLicenseKey string        `koanf:"maxmind_license_key"`
	Timeout           time.Duration `koanf:"timeout"`
	CacheSize         int           `koanf:"cache_size"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	Badger            BadgerConfig  `koanf:"badger"`
}

// BadgerConfig holds the persistent geolocation cache settings.
type BadgerConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// SecurityConfig holds dashboard authentication and HTTP hardening settings.
type SecurityConfig struct {
	AuthDisabled      bool          `koanf:"auth_disabled"`
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTIssuer         string        `koanf:"jwt_issuer"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// AuthzConfig holds casbin settings. Empty paths select the embedded model
// and policy.
type AuthzConfig struct {
	ModelPath   string        `koanf:"model_path"`
	PolicyPath  string        `koanf:"policy_path"`
	DefaultRole string        `koanf:"default_role"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
}

// EventBusConfig selects and tunes the recorded-event bus.
type EventBusConfig struct {
	// Backend is "gochannel" or "nats".
	Backend string     `koanf:"backend"`
	NATS    NATSConfig `koanf:"nats"`
}

// NATSConfig holds JetStream settings used by the nats backend.
type NATSConfig struct {
	URL      string `koanf:"url"`
	Embedded bool   `koanf:"embedded"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	StoreDir string `koanf:"store_dir"`
	Stream   string `koanf:"stream"`
	Durable  string `koanf:"durable"`
}

// APIConfig holds dashboard API paging defaults.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// AuthEnabled reports whether dashboard routes require a token.
func (c *Config) AuthEnabled() bool {
	return !c.Security.AuthDisabled
}
