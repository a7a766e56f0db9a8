// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"net/http"

	"github.com/tomtom215/beacon/internal/logging"
)

// embedScript posts one event per page load to the collector that served it.
const embedScript = `(function () {
  var script = document.currentScript;
  if (!script) return;
  var projectId = script.getAttribute("data-project-id");
  if (!projectId) return;
  var endpoint = new URL("/events", script.src).toString();
  fetch(endpoint, {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify({ projectId: projectId, timestamp: Date.now() }),
    keepalive: true
  }).catch(function () {});
})();
`

// EmbedScript godoc
// @Summary Embed script
// @Description Include with <script src=".../main.js" data-project-id="..."></script>
// @Tags Collector
// @Produce application/javascript
// @Success 200 {string} string
// @Router /main.js [get]
func (h *Handler) EmbedScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write([]byte(embedScript)); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Embed script write interrupted")
	}
}
