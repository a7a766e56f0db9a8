// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package services

import (
	"context"
	"time"

	"github.com/tomtom215/beacon/internal/logging"
)

// ExpiringCache drops expired in-memory entries. *geoip.Resolver implements it.
type ExpiringCache interface {
	CleanupExpired() int
}

// GarbageCollector reclaims on-disk space. *geoip.Store implements it.
type GarbageCollector interface {
	RunGC() error
}

// GeoIPMaintenanceService periodically prunes the geolocation LRU and runs
// Badger value log GC. Either collaborator may be nil.
type GeoIPMaintenanceService struct {
	cache    ExpiringCache
	store    GarbageCollector
	interval time.Duration
}

// NewGeoIPMaintenanceService creates the service. A non-positive interval
// means 10 minutes.
func NewGeoIPMaintenanceService(cache ExpiringCache, store GarbageCollector, interval time.Duration) *GeoIPMaintenanceService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GeoIPMaintenanceService{cache: cache, store: store, interval: interval}
}

// Serve implements suture.Service.
func (s *GeoIPMaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *GeoIPMaintenanceService) runOnce() {
	log := logging.WithComponent("geoip-maintenance")
	if s.cache != nil {
		if n := s.cache.CleanupExpired(); n > 0 {
			log.Debug().Int("removed", n).Msg("Pruned expired geolocation entries")
		}
	}
	if s.store != nil {
		if err := s.store.RunGC(); err != nil {
			// Badger GC failures are not fatal; the next tick retries.
			log.Warn().Err(err).Msg("Geolocation store GC failed")
		}
	}
}

func (s *GeoIPMaintenanceService) String() string {
	return "geoip-maintenance"
}
