// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingCache struct{ calls atomic.Int32 }

func (c *countingCache) CleanupExpired() int {
	c.calls.Add(1)
	return 2
}

type countingGC struct {
	calls atomic.Int32
	err   error
}

func (g *countingGC) RunGC() error {
	g.calls.Add(1)
	return g.err
}

func TestGeoIPMaintenanceServiceRunsPeriodically(t *testing.T) {
	t.Parallel()

	cache := &countingCache{}
	gc := &countingGC{err: errors.New("value log busy")}
	svc := NewGeoIPMaintenanceService(cache, gc, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for cache.calls.Load() < 2 || gc.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("maintenance ran %d/%d times", cache.calls.Load(), gc.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestGeoIPMaintenanceServiceNilCollaborators(t *testing.T) {
	t.Parallel()

	svc := NewGeoIPMaintenanceService(nil, nil, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v", svc.interval)
	}
	svc.runOnce()
	if svc.String() != "geoip-maintenance" {
		t.Errorf("String() = %q", svc.String())
	}
}
