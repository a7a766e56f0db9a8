// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/models"
	"github.com/tomtom215/beacon/internal/validation"
)

// overviewWindow is the period summarized by the overview.
const overviewWindow = 30 * 24 * time.Hour

// ListEvents godoc
// @Summary List recorded events
// @Tags Events
// @Produce json
// @Param projectID path string true "Project ID"
// @Param page query int false "Page, from 1" default(1)
// @Param pageSize query int false "Page size" default(25)
// @Param search query string false "Substring of ip, country, region, city, isp or AS name"
// @Param sortBy query string false "Sort field" Enums(timestamp, ipAddress, type, country, region, city, zip, isp, asName)
// @Param sortDir query string false "Sort direction" Enums(asc, desc)
// @Success 200 {object} models.APIResponse{data=models.EventPage}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID}/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q, err := h.parseEventsQuery(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		respondValidation(w, r, verr)
		return
	}
	if q.PageSize > h.cfg.API.MaxPageSize {
		respondError(w, r, http.StatusBadRequest, CodeValidation,
			fmt.Sprintf("pageSize must be at most %d", h.cfg.API.MaxPageSize), nil)
		return
	}

	project, ok := h.ownedProject(w, r)
	if !ok {
		return
	}
	page, err := h.store.ListProjectEvents(r.Context(), project.ID, q.ToQuery())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, page, start)
}

// ListLocations godoc
// @Summary Recent event locations
// @Description The most recent geolocated events, for the dashboard map
// @Tags Events
// @Produce json
// @Param projectID path string true "Project ID"
// @Param limit query int false "Maximum points, 1 to 100" default(30)
// @Success 200 {object} models.APIResponse{data=[]models.Location}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID}/locations [get]
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, err := queryInt(r, "limit", defaultLocationLimit)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}
	q := LocationsQueryRequest{Limit: limit}
	if verr := validation.ValidateStruct(&q); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	project, ok := h.ownedProject(w, r)
	if !ok {
		return
	}
	locations, err := h.store.ListProjectLocations(r.Context(), project.ID, q.Limit)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, locations, start)
}

// GetOverview godoc
// @Summary 30-day project summary
// @Tags Events
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} models.APIResponse{data=models.Overview}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID}/overview [get]
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	project, ok := h.ownedProject(w, r)
	if !ok {
		return
	}
	ov, err := h.store.GetProjectOverview(r.Context(), project.ID, h.now().UTC().Add(-overviewWindow))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	ov.ProjectID = project.ID
	ov.Name = project.Name
	ov.CollectorOrigin = h.cfg.Collector.PublicOrigin
	respondSuccess(w, r, http.StatusOK, ov, start)
}

// ExportEvents godoc
// @Summary Download events as JSON
// @Description A pretty-printed JSON array with 1-based row ids, served as an attachment
// @Tags Events
// @Produce json
// @Param projectID path string true "Project ID"
// @Param range query string false "Time range" Enums(day, week, month, all) default(month)
// @Param search query string false "Substring filter"
// @Success 200 {array} models.ExportRow
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID}/export [get]
func (h *Handler) ExportEvents(w http.ResponseWriter, r *http.Request) {
	q := ExportQueryRequest{
		Range:  queryString(r, "range", ExportRangeMonth),
		Search: queryString(r, "search", ""),
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	project, ok := h.ownedProject(w, r)
	if !ok {
		return
	}
	events, err := h.store.ExportProjectEvents(r.Context(), project.ID, q.Since(h.now().UTC()), q.Search)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	body, err := json.MarshalIndent(models.NewExportRows(events), "", "  ")
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Failed to encode export", err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.json"`, project.ID, q.Range))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Export write interrupted")
	}
}
