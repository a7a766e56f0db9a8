// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package collector

import (
	"net/http"
	"net/url"
	"strings"
)

// ResolveHostname returns the lower-cased hostname the request claims to come
// from. Origin wins over Referer, and the request's own URL is the last
// resort. A source that fails to parse, or parses without a host (for
// example "null" from sandboxed frames), is skipped. The result is "" when
// every source is unusable.
//
// requestURL must be absolute; callers build it from the scheme and Host of
// the inbound request.
func ResolveHostname(h http.Header, requestURL string) string {
	for _, raw := range []string{h.Get("Origin"), h.Get("Referer"), requestURL} {
		if host := hostnameOf(raw); host != "" {
			return host
		}
	}
	return ""
}

func hostnameOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// RequestURL rebuilds the absolute URL of an inbound server request, which
// net/http only exposes in parts.
func RequestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
