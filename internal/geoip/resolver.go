// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package geoip

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/tomtom215/beacon/internal/cache"
	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
)

// noRecordTTL bounds how long a "no record" answer is trusted.
const noRecordTTL = time.Hour

// PersistentCache is the second cache tier, implemented by Store.
type PersistentCache interface {
	Get(ip string) (*collector.GeoInfo, bool, error)
	Put(ip string, geo *collector.GeoInfo, ttl time.Duration) error
}

// Resolver resolves addresses through the cache tiers and providers.
type Resolver struct {
	providers []Provider
	mem       *cache.LRU[*collector.GeoInfo]
	store     PersistentCache
	ttl       time.Duration
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithPersistentCache adds a second cache tier behind the LRU.
func WithPersistentCache(pc PersistentCache) ResolverOption {
	return func(r *Resolver) { r.store = pc }
}

// NewResolver creates a resolver with an LRU of cacheSize entries. Providers
// are tried in order until one answers.
func NewResolver(cacheSize int, ttl time.Duration, providers []Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		providers: providers,
		mem:       cache.NewLRU[*collector.GeoInfo](cacheSize, ttl),
		ttl:       ttl,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the record for ip. A nil record with a nil error means no
// data exists: the address is private or every provider said so. An error
// means the lookup could not be completed; callers record the event without
// enrichment.
func (r *Resolver) Resolve(ctx context.Context, ip string) (*collector.GeoInfo, error) {
	ip = NormalizeIP(ip)
	if IsPrivateIP(ip) {
		metrics.GeolocationLookups.WithLabelValues("local", "skipped").Inc()
		return nil, nil
	}

	if geo, ok := r.mem.Get(ip); ok {
		metrics.GeolocationCacheHits.WithLabelValues("memory").Inc()
		return geo, nil
	}

	if r.store != nil {
		geo, found, err := r.store.Get(ip)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("ip", ip).Msg("GeoIP store read failed")
		} else if found {
			metrics.GeolocationCacheHits.WithLabelValues("badger").Inc()
			r.remember(ip, geo, false)
			return geo, nil
		}
	}
	metrics.GeolocationCacheMisses.Inc()

	return r.tryProviders(ctx, ip)
}

func (r *Resolver) tryProviders(ctx context.Context, ip string) (*collector.GeoInfo, error) {
	var lastErr error
	noRecord := false

	for _, p := range r.providers {
		if !p.IsAvailable() {
			continue
		}
		geo, err := p.Lookup(ctx, ip)
		if err == nil {
			r.remember(ip, geo, true)
			return geo, nil
		}
		if errors.Is(err, ErrNoRecord) {
			noRecord = true
		}
		logging.Ctx(ctx).Debug().Err(err).Str("provider", p.Name()).Str("ip", ip).Msg("GeoIP provider failed")
		lastErr = err
	}

	if noRecord {
		r.remember(ip, nil, true)
		return nil, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all GeoIP providers failed for %s: %w", ip, lastErr)
	}
	return nil, fmt.Errorf("no GeoIP providers available")
}

func (r *Resolver) remember(ip string, geo *collector.GeoInfo, persist bool) {
	ttl := r.ttl
	if geo == nil {
		ttl = min(ttl, noRecordTTL)
	}
	r.mem.AddWithTTL(ip, geo, ttl)

	if !persist || r.store == nil {
		return
	}
	if err := r.store.Put(ip, geo, ttl); err != nil {
		logging.Warn().Err(err).Str("ip", ip).Msg("Failed to persist geolocation")
	}
}

// CleanupExpired drops expired LRU entries.
func (r *Resolver) CleanupExpired() int {
	return r.mem.CleanupExpired()
}

// CacheStats returns the in-memory cache counters.
func (r *Resolver) CacheStats() cache.Stats {
	return r.mem.Stats()
}

// NormalizeIP strips a port, IPv6 brackets and an IPv4-mapped prefix so the
// same client always maps to one cache key. Unparsable input is returned
// trimmed and unchanged.
func NormalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ap, err := netip.ParseAddrPort(ip); err == nil {
		return ap.Addr().Unmap().String()
	}
	ip = strings.TrimSuffix(strings.TrimPrefix(ip, "["), "]")
	if addr, err := netip.ParseAddr(ip); err == nil {
		return addr.Unmap().String()
	}
	return ip
}
