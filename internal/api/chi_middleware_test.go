// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/config"
)

func TestKeyByClientAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"cloudflare header", collector.HeaderCFConnectingIP, "203.0.113.9", "203.0.113.9"},
		{"forwarded chain", collector.HeaderXForwardedFor, "198.51.100.1, 10.0.0.1", "198.51.100.1"},
		{"connection fallback", "", "", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/events", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			got, err := KeyByClientAddress(req)
			if err != nil {
				t.Fatalf("KeyByClientAddress() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("KeyByClientAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitDisabledIsNoop(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(CollectorMiddlewareConfig(&config.CollectorConfig{
		RateLimitReqs:     1,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: true,
	}))
	handler := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
}

func TestDashboardRateLimitEnvelope(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Security.RateLimitDisabled = false
	cfg.Security.RateLimitReqs = 1
	cfg.Security.RateLimitWindow = time.Minute
	ts := newTestServer(t, cfg, nil)

	first := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first = %d", first.Code)
	}
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d, want 429", rec.Code)
	}
	env := decodeEnvelope(t, rec, nil)
	if env.Error == nil || env.Error.Code != CodeRateLimited {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestDashboardCORS(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "https://dash.example.net")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	rec := ts.do(req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.net" {
		t.Errorf("allowed origin = %q", got)
	}

	req.Header.Set("Origin", "https://evil.test")
	rec = ts.do(req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}
