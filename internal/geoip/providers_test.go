// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package geoip

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIPAPIProvider_Lookup(t *testing.T) {
	t.Parallel()

	var gotPath, gotFields string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFields = r.URL.Query().Get("fields")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","country":"Canada","regionName":"Quebec","city":"Montreal",
			"zip":"H1A","isp":"Videotron","as":"AS5769 Videotron Telecom Ltee","lat":45.5,"lon":-73.6,
			"proxy":false,"mobile":true,"hosting":false}`))
	}))
	defer srv.Close()

	p := NewIPAPIProvider(srv.URL+"/json/", 45, time.Second)
	geo, err := p.Lookup(context.Background(), "24.48.0.1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	if gotPath != "/json/24.48.0.1" {
		t.Errorf("path = %q, want /json/24.48.0.1", gotPath)
	}
	if gotFields != ipAPIFields {
		t.Errorf("fields = %q, want %q", gotFields, ipAPIFields)
	}
	if geo.Country != "Canada" || geo.Region != "Quebec" || geo.City != "Montreal" {
		t.Errorf("unexpected location: %+v", geo)
	}
	if geo.ASName != "AS5769 Videotron Telecom Ltee" || geo.ISP != "Videotron" {
		t.Errorf("unexpected network: %+v", geo)
	}
	if !geo.Mobile || geo.Proxy || geo.Hosting {
		t.Errorf("unexpected flags: %+v", geo)
	}
	if geo.Source != "ip-api" {
		t.Errorf("Source = %q, want ip-api", geo.Source)
	}
}

func TestIPAPIProvider_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"reserved range", http.StatusOK, `{"status":"fail","message":"reserved range"}`, ErrNoRecord},
		{"server error", http.StatusInternalServerError, `oops`, nil},
		{"bad json", http.StatusOK, `{"status":`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewIPAPIProvider(srv.URL, 45, time.Second).Lookup(context.Background(), "8.8.8.8")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && errors.Is(err, ErrNoRecord) {
				t.Errorf("outage reported as no record: %v", err)
			}
		})
	}
}

func TestIPAPIProvider_RateLimit(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"status":"success","country":"X"}`))
	}))
	defer srv.Close()

	p := NewIPAPIProvider(srv.URL, 2, time.Second)
	for i := 0; i < 2; i++ {
		if _, err := p.Lookup(context.Background(), "8.8.8.8"); err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
	}
	if _, err := p.Lookup(context.Background(), "8.8.8.8"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("third lookup error = %v, want ErrRateLimited", err)
	}
	if calls != 2 {
		t.Errorf("upstream calls = %d, want 2", calls)
	}
}

func TestIPAPIProvider_InvalidAddress(t *testing.T) {
	t.Parallel()

	p := NewIPAPIProvider("http://127.0.0.1:1", 45, time.Second)
	if _, err := p.Lookup(context.Background(), "not-an-ip"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("error = %v, want ErrInvalidAddress", err)
	}
}

func TestMaxMindProvider_Lookup(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "acct" || pass != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"AUTHORIZATION_INVALID","error":"bad key"}`))
			return
		}
		if strings.HasSuffix(r.URL.Path, "/10.0.0.1") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"IP_ADDRESS_RESERVED","error":"reserved"}`))
			return
		}
		_, _ = w.Write([]byte(`{"city":{"names":{"en":"Berlin"}},"country":{"names":{"en":"Germany"}},
			"location":{"latitude":52.5,"longitude":13.4},"postal":{"code":"10115"},
			"subdivisions":[{"names":{"en":"Land Berlin"}}],
			"traits":{"autonomous_system_organization":"Hetzner","is_hosting_provider":true}}`))
	}))
	defer srv.Close()

	p := NewMaxMindProvider("acct", "key", srv.URL, time.Second)
	geo, err := p.Lookup(context.Background(), "5.9.0.1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if geo.City != "Berlin" || geo.Region != "Land Berlin" || geo.Country != "Germany" || geo.Zip != "10115" {
		t.Errorf("unexpected location: %+v", geo)
	}
	if !geo.Hosting || geo.ASName != "Hetzner" || geo.Source != "maxmind" {
		t.Errorf("unexpected traits: %+v", geo)
	}

	if _, err := p.Lookup(context.Background(), "10.0.0.1"); !errors.Is(err, ErrNoRecord) {
		t.Errorf("reserved address error = %v, want ErrNoRecord", err)
	}

	bad := NewMaxMindProvider("acct", "wrong", srv.URL, time.Second)
	if _, err := bad.Lookup(context.Background(), "5.9.0.1"); err == nil || errors.Is(err, ErrNoRecord) {
		t.Errorf("auth failure error = %v", err)
	}
}

func TestMaxMindProvider_Unconfigured(t *testing.T) {
	t.Parallel()

	p := NewMaxMindProvider("", "", "", time.Second)
	if p.IsAvailable() {
		t.Error("IsAvailable() = true without credentials")
	}
	if _, err := p.Lookup(context.Background(), "8.8.8.8"); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestIsPrivateIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		{"169.254.1.1", true},
		{"0.0.0.0", true},
		{"::1", true},
		{"fe80::1", true},
		{"fd00::1", true},
		{"::ffff:192.168.1.1", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := IsPrivateIP(tt.ip); got != tt.want {
			t.Errorf("IsPrivateIP(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}
