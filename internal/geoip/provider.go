// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

// Package geoip enriches client addresses with location and network data.
//
// A Resolver consults an in-memory LRU, then an optional Badger-backed store,
// then each configured Provider in order. Upstream providers are wrapped in a
// circuit breaker, and ip-api.com is additionally held to its free-tier
// request budget.
package geoip

import (
	"context"
	"errors"
	"net/netip"

	"github.com/tomtom215/beacon/internal/collector"
)

var (
	// ErrNoRecord means the provider answered but has no data for the address.
	// Resolver caches this outcome.
	ErrNoRecord = errors.New("no geolocation record")

	// ErrRateLimited means the lookup was skipped to stay within the
	// provider's request budget.
	ErrRateLimited = errors.New("geolocation rate limit exceeded")

	// ErrInvalidAddress means the input is not an IP address.
	ErrInvalidAddress = errors.New("invalid IP address")
)

// Provider looks up geolocation data for a single address.
type Provider interface {
	// Lookup returns the record for ip, ErrNoRecord when the provider knows
	// nothing about it, or another error when the call failed.
	Lookup(ctx context.Context, ip string) (*collector.GeoInfo, error)

	// Name returns the provider name for logging and metrics.
	Name() string

	// IsAvailable reports whether the provider is configured.
	IsAvailable() bool
}

// IsPrivateIP reports whether ip is loopback, link-local, RFC 1918, unique
// local, or unspecified. Such addresses cannot be geolocated.
func IsPrivateIP(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsPrivate() ||
		addr.IsLoopback() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified()
}

func validAddress(ip string) error {
	if _, err := netip.ParseAddr(ip); err != nil {
		return ErrInvalidAddress
	}
	return nil
}
