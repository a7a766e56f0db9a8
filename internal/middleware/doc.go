// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package middleware holds the HTTP middleware shared by every Beacon route.

  - RequestID: honors or generates X-Request-ID and seeds the logging context
  - PrometheusMetrics: request counts, latency and in-flight gauge, labeled by
    chi route pattern
  - AccessLog: one structured line per request, escalated to warn when slow
  - SecurityHeaders: conservative response headers

The router applies them outermost first:

	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(time.Second))

All wrappers use chi's WrapResponseWriter so websocket upgrades keep access
to http.Hijacker.
*/
package middleware
