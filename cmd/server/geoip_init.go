// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package main

import (
	"fmt"

	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/geoip"
	"github.com/tomtom215/beacon/internal/logging"
)

// geoProviders returns the configured providers in lookup order, each behind
// its own circuit breaker. MaxMind is preferred when credentials are set.
func geoProviders(cfg *config.GeoIPConfig) []geoip.Provider {
	var providers []geoip.Provider
	if cfg.MaxMindAccountID != "" {
		mm := geoip.NewMaxMindProvider(cfg.MaxMindAccountID, cfg.MaxMindLicenseKey, geoip.DefaultMaxMindBaseURL, cfg.Timeout)
		providers = append(providers, geoip.WithBreaker(mm, geoip.DefaultBreakerSettings()))
	}
	if cfg.IPAPIEnabled {
		ipapi := geoip.NewIPAPIProvider(cfg.IPAPIBaseURL, cfg.IPAPIPerMinute, cfg.Timeout)
		providers = append(providers, geoip.WithBreaker(ipapi, geoip.DefaultBreakerSettings()))
	}
	return providers
}

// initGeoIP builds the resolver and, when enabled, opens the persistent
// cache. The returned store is nil when persistence is off; the caller
// closes it.
func initGeoIP(cfg *config.GeoIPConfig) (*geoip.Resolver, *geoip.Store, error) {
	providers := geoProviders(cfg)
	if len(providers) == 0 {
		logging.Warn().Msg("No GeoIP providers configured - events will be recorded without location")
	}

	var opts []geoip.ResolverOption
	var store *geoip.Store
	if cfg.Badger.Enabled {
		var err error
		store, err = geoip.OpenStore(cfg.Badger.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open geoip cache: %w", err)
		}
		opts = append(opts, geoip.WithPersistentCache(store))
		logging.Info().Str("path", cfg.Badger.Path).Msg("Persistent GeoIP cache opened")
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	logging.Info().Strs("providers", names).Int("cache_size", cfg.CacheSize).Dur("cache_ttl", cfg.CacheTTL).Msg("GeoIP resolver initialized")

	return geoip.NewResolver(cfg.CacheSize, cfg.CacheTTL, providers, opts...), store, nil
}
