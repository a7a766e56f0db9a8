// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/beacon/internal/logging"
)

const readinessTimeout = 2 * time.Second

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status   string  `json:"status"`
	Database string  `json:"database,omitempty"`
	Uptime   float64 `json:"uptime_seconds,omitempty"`
}

// HealthLive godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} HealthStatus
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondCollector(w, http.StatusOK, HealthStatus{Status: "ok"})
}

// HealthReady godoc
// @Summary Readiness probe
// @Description Pings DuckDB
// @Tags Health
// @Produce json
// @Success 200 {object} HealthStatus
// @Failure 503 {object} HealthStatus
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	uptime := time.Since(h.startTime).Seconds()
	if err := h.store.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
		respondCollector(w, http.StatusServiceUnavailable, HealthStatus{
			Status:   "unavailable",
			Database: "error",
			Uptime:   uptime,
		})
		return
	}
	respondCollector(w, http.StatusOK, HealthStatus{Status: "ok", Database: "ok", Uptime: uptime})
}
