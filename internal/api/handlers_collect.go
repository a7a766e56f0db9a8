// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

func newEventID() string {
	return uuid.New().String()
}

// rejection is the collector response for a rejected verdict.
type rejection struct {
	status  int
	message string
}

var rejections = map[collector.Reason]rejection{
	collector.ReasonNoClientAddress:      {http.StatusBadRequest, "IP address required"},
	collector.ReasonProjectNotFound:      {http.StatusNotFound, "Project not found"},
	collector.ReasonNoResolvableHostname: {http.StatusBadRequest, "Unable to determine request hostname"},
	collector.ReasonDomainNotAllowed:     {http.StatusForbidden, "Hostname not allowed for project"},
}

// CollectEvent godoc
// @Summary Record a page event
// @Description Public endpoint used by the embed script. The request is admitted
// @Description only when its Origin, Referer or URL hostname is allowed for the project.
// @Tags Collector
// @Accept json
// @Produce json
// @Param request body object true "{projectId, timestamp}"
// @Success 201 {object} models.CollectorCreated
// @Failure 400 {object} models.CollectorError
// @Failure 403 {object} models.CollectorError
// @Failure 404 {object} models.CollectorError
// @Failure 413 {object} models.CollectorError
// @Router /events [post]
func (h *Handler) CollectEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.CollectorDuration.Observe(time.Since(start).Seconds())
	}()
	ctx := r.Context()
	log := logging.Ctx(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.Collector.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.CollectorRejectedPayloads.WithLabelValues("too_large").Inc()
			collectorError(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		metrics.CollectorRejectedPayloads.WithLabelValues("unreadable").Inc()
		collectorError(w, http.StatusBadRequest, collector.ErrInvalidJSON.Error())
		return
	}

	payload, err := collector.ParsePayload(body)
	if err != nil {
		metrics.CollectorRejectedPayloads.WithLabelValues(payloadRejectReason(err)).Inc()
		collectorError(w, http.StatusBadRequest, err.Error())
		return
	}

	verdict, err := h.authorizer.Authorize(ctx, collector.Request{
		ProjectID:  payload.ProjectID,
		Header:     r.Header,
		RequestURL: collector.RequestURL(r),
	})
	if err != nil {
		log.Error().Err(err).Str("project_id", payload.ProjectID).Msg("Collector authorization failed")
		collectorError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	metrics.RecordVerdict(string(verdict.Reason))
	if !verdict.Admitted {
		rej := rejections[verdict.Reason]
		log.Debug().
			Str("project_id", payload.ProjectID).
			Str("reason", string(verdict.Reason)).
			Str("hostname", verdict.Hostname).
			Msg("Collector request rejected")
		collectorError(w, rej.status, rej.message)
		return
	}

	var geo *collector.GeoInfo
	if h.geo != nil {
		geo, err = h.geo.Resolve(ctx, verdict.ClientAddress)
		if err != nil {
			log.Debug().Err(err).Str("ip", verdict.ClientAddress).Msg("Geolocation unavailable, recording without enrichment")
			geo = nil
		}
	}

	event := models.NewEvent(h.newID(), payload.ProjectID, payload.Time(), verdict.ClientAddress, geo)
	if err := h.store.InsertEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("project_id", payload.ProjectID).Msg("Failed to store event")
		collectorError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	metrics.EventsRecorded.WithLabelValues(string(event.Type)).Inc()

	if h.publisher != nil {
		recorded := &models.RecordedEvent{Event: *event, Hostname: verdict.Hostname}
		if err := h.publisher.PublishRecorded(ctx, recorded); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to publish recorded event")
		}
	}

	respondCollector(w, http.StatusCreated, models.CollectorCreated{ID: event.ID})
}

func payloadRejectReason(err error) string {
	switch {
	case errors.Is(err, collector.ErrInvalidJSON):
		return "invalid_json"
	case errors.Is(err, collector.ErrProjectIDMissing):
		return "missing_project_id"
	case errors.Is(err, collector.ErrInvalidTimestamp):
		return "invalid_timestamp"
	default:
		return "invalid_payload"
	}
}
