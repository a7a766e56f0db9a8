// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/beacon/config.yaml",
	"/etc/beacon/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3857,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/beacon.duckdb",
			MaxMemory: "1GB",
		},
		Collector: CollectorConfig{
			PublicOrigin:    "http://localhost:3857",
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
			MaxBodyBytes:    16 << 10,
		},
		GeoIP: GeoIPConfig{
			IPAPIEnabled:   true,
			IPAPIBaseURL:   "http://ip-api.com/json",
			IPAPIPerMinute: 45,
			Timeout:        5 * time.Second,
			CacheSize:      10000,
			CacheTTL:       24 * time.Hour,
			Badger: BadgerConfig{
				Enabled: false,
				Path:    "/data/geoip-cache",
			},
		},
		Security: SecurityConfig{
			SessionTimeout:  24 * time.Hour,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Authz: AuthzConfig{
			DefaultRole: "editor",
			CacheTTL:    5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Backend: "gochannel",
			NATS: NATSConfig{
				URL:      "nats://127.0.0.1:4222",
				Host:     "127.0.0.1",
				Port:     4222,
				StoreDir: "/data/nats",
				Stream:   "BEACON_EVENTS",
				Durable:  "beacon-live",
			},
		},
		API: APIConfig{
			DefaultPageSize: 25,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, the optional YAML file and the environment,
// then validates the result. Environment variables win.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"collector_origin":              "collector.public_origin",
	"collector_rate_limit_reqs":     "collector.rate_limit_reqs",
	"collector_rate_limit_window":   "collector.rate_limit_window",
	"collector_rate_limit_disabled": "collector.rate_limit_disabled",
	"collector_max_body_bytes":      "collector.max_body_bytes",

	"geoip_ipapi_enabled":    "geoip.ipapi_enabled",
	"geoip_ipapi_base_url":   "geoip.ipapi_base_url",
	"geoip_ipapi_per_minute": "geoip.ipapi_per_minute",
	"maxmind_account_id":     "geoip.maxmind_account_id",
	"maxmind_license_key":    "geoip.maxmind_license_key",
	"geoip_timeout":          "geoip.timeout",
	"geoip_cache_size":       "geoip.cache_size",
	"geoip_cache_ttl":        "geoip.cache_ttl",
	"geoip_badger_enabled":   "geoip.badger.enabled",
	"geoip_badger_path":      "geoip.badger.path",

	"auth_disabled":       "security.auth_disabled",
	"jwt_secret":          "security.jwt_secret",
	"jwt_issuer":          "security.jwt_issuer",
	"session_timeout":     "security.session_timeout",
	"cors_origins":        "security.cors_origins",
	"rate_limit_reqs":     "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"rate_limit_disabled": "security.rate_limit_disabled",

	"authz_model_path":   "authz.model_path",
	"authz_policy_path":  "authz.policy_path",
	"authz_default_role": "authz.default_role",
	"authz_cache_ttl":    "authz.cache_ttl",

	"eventbus_backend": "eventbus.backend",
	"nats_url":         "eventbus.nats.url",
	"nats_embedded":    "eventbus.nats.embedded",
	"nats_host":        "eventbus.nats.host",
	"nats_port":        "eventbus.nats.port",
	"nats_store_dir":   "eventbus.nats.store_dir",
	"nats_stream":      "eventbus.nats.stream",
	"nats_durable":     "eventbus.nats.durable",

	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to its koanf path, or ""
// to drop it.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
