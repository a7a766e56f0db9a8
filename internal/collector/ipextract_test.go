// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package collector

import (
	"net/http"
	"sync"
	"testing"
)

func TestIsValidIPv4(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"192.168.1.1", true},
		{"0.0.0.0", true},
		{"255.255.255.255", true},
		{"8.8.8.8", true},
		{"256.1.1.1", false},
		{"1.1.1.300", false},
		{"1.1.1", false},
		{"1.1.1.1.1", false},
		{"1.1.1.1 ", false},
		{" 1.1.1.1", false},
		{"1.1.1.1\n", false},
		{"a.b.c.d", false},
		{"1..1.1", false},
		{"", false},
		{"::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := IsValidIPv4(tt.input); got != tt.want {
				t.Errorf("IsValidIPv4(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsValidIPv6(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"::", true},
		{"::1", true},
		{"2001:db8::1", true},
		{"2001:0db8:0000:0000:0000:ff00:0042:8329", true},
		{"fe80::1ff:fe23:4567:890a", true},
		{"::ffff:192.0.2.1", true},
		{"2001:db8::", true},
		{"2001:db8::1::1", false},
		{"1:2:3:4:5:6:7:8:9", false},
		{"2001:db8::g1", false},
		{"fe80::1%eth0", false},
		{"192.168.1.1", false},
		{"", false},
		{"not-an-ip", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := IsValidIPv6(tt.input); got != tt.want {
				t.Errorf("IsValidIPv6(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name: "dedicated ipv4 header wins over generic header",
			headers: map[string]string{
				HeaderCFConnectingIPv4: "10.0.0.1",
				HeaderCFConnectingIP:   "8.8.8.8",
			},
			want: "10.0.0.1",
		},
		{
			name: "invalid dedicated ipv4 header is skipped",
			headers: map[string]string{
				HeaderCFConnectingIPv4: "999.0.0.1",
				HeaderCFConnectingIP:   "8.8.8.8",
			},
			want: "8.8.8.8",
		},
		{
			name: "ipv4 header does not accept ipv6",
			headers: map[string]string{
				HeaderCFConnectingIPv4: "2001:db8::1",
			},
			want: "",
		},
		{
			name: "dedicated ipv6 header",
			headers: map[string]string{
				HeaderCFConnectingIPv6: "2001:db8::1",
				HeaderXForwardedFor:    "8.8.8.8",
			},
			want: "2001:db8::1",
		},
		{
			name: "ipv6 header does not accept ipv4",
			headers: map[string]string{
				HeaderCFConnectingIPv6: "1.2.3.4",
			},
			want: "",
		},
		{
			name: "ipv4 mapped forwarded-for",
			headers: map[string]string{
				HeaderXForwardedFor: "::ffff:192.0.2.1, 10.0.0.1",
			},
			want: "192.0.2.1",
		},
		{
			name: "ipv4 mapped prefix with hex tail is ipv6",
			headers: map[string]string{
				HeaderXForwardedFor: "::ffff:abcd",
			},
			want: "::ffff:abcd",
		},
		{
			name: "ipv4 mapped in hex form",
			headers: map[string]string{
				HeaderCFConnectingIP: "::ffff:c000:201",
			},
			want: "::ffff:c000:201",
		},
		{
			name: "ipv4 mapped prefix with garbage tail is absent",
			headers: map[string]string{
				HeaderXForwardedFor: "::ffff:999.1.1.1",
			},
			want: "",
		},
		{
			name: "forwarded-for first token only",
			headers: map[string]string{
				HeaderXForwardedFor: "  203.0.113.7 , 10.0.0.1",
			},
			want: "203.0.113.7",
		},
		{
			name: "forwarded-for ipv6 token",
			headers: map[string]string{
				HeaderXForwardedFor: "2001:db8::7, 10.0.0.1",
			},
			want: "2001:db8::7",
		},
		{
			name: "malformed forwarded-for is absent",
			headers: map[string]string{
				HeaderXForwardedFor: "not-an-ip",
			},
			want: "",
		},
		{
			name: "smuggled list in first token is rejected",
			headers: map[string]string{
				HeaderXForwardedFor: "1.2.3.4 5.6.7.8, 9.9.9.9",
			},
			want: "",
		},
		{
			name: "cf-connecting-ip shadows forwarded-for even when invalid",
			headers: map[string]string{
				HeaderCFConnectingIP: "garbage",
				HeaderXForwardedFor:  "1.2.3.4",
			},
			want: "",
		},
		{
			name:    "no headers",
			headers: map[string]string{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			if got := ExtractClientIP(h); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractClientIPCaseInsensitiveHeaders(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("cf-connecting-ipv4", "10.1.2.3")
	if got := ExtractClientIP(h); got != "10.1.2.3" {
		t.Errorf("expected lower-case header to be honored, got %q", got)
	}
}

func TestExtractClientIPConcurrent(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set(HeaderXForwardedFor, "::ffff:192.0.2.1")

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := ExtractClientIP(h); got != "192.0.2.1" {
				t.Errorf("concurrent extract = %q", got)
			}
		}()
	}
	wg.Wait()
}

func FuzzExtractClientIP(f *testing.F) {
	f.Add("1.2.3.4")
	f.Add("::ffff:1.2.3.4, 5.6.7.8")
	f.Add("2001:db8::1")
	f.Add(",,,")

	f.Fuzz(func(t *testing.T, xff string) {
		h := http.Header{}
		h.Set(HeaderXForwardedFor, xff)
		got := ExtractClientIP(h)
		if got != "" && !IsValidIPv4(got) && !IsValidIPv6(got) {
			t.Errorf("extracted invalid address %q from %q", got, xff)
		}
	})
}
