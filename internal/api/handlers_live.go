// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/websocket"
)

func (h *Handler) upgrader() *gorillaws.Upgrader {
	return &gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts browser handshakes from the dashboard origins.
// A missing Origin is rejected: browsers always send one.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Ctx(r.Context()).Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Ctx(r.Context()).Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// LiveEvents godoc
// @Summary Live event stream
// @Description Upgrades to a WebSocket that receives {"type":"event","data":RecordedEvent}
// @Description for every event recorded for the project. Browsers pass the token as access_token.
// @Tags Events
// @Param projectID path string true "Project ID"
// @Param access_token query string false "JWT, for browsers that cannot set headers"
// @Success 101
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID}/live [get]
func (h *Handler) LiveEvents(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Live stream is not available", nil)
		return
	}
	project, ok := h.ownedProject(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, project.ID)
	if err := client.Attach(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("project_id", project.ID).Msg("WebSocket client not registered")
		return
	}
	logging.Ctx(r.Context()).Debug().
		Uint64("client_id", client.ID()).
		Str("project_id", project.ID).
		Msg("WebSocket client connected")
}
