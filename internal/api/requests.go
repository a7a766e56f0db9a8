// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/beacon/internal/models"
)

// EventsQueryRequest holds the query of GET /projects/{projectID}/events.
type EventsQueryRequest struct {
	Page     int    `json:"page" validate:"min=1"`
	PageSize int    `json:"pageSize" validate:"min=1"`
	Search   string `json:"search" validate:"max=100"`
	SortBy   string `json:"sortBy" validate:"oneof=timestamp ipAddress type country region city zip isp asName"`
	SortDir  string `json:"sortDir" validate:"oneof=asc desc"`
}

// ToQuery converts the request to a storage query.
func (q EventsQueryRequest) ToQuery() models.EventListQuery {
	return models.EventListQuery{
		Page:     q.Page,
		PageSize: q.PageSize,
		Search:   q.Search,
		SortBy:   q.SortBy,
		SortDir:  q.SortDir,
	}
}

// LocationsQueryRequest holds the query of GET /projects/{projectID}/locations.
type LocationsQueryRequest struct {
	Limit int `json:"limit" validate:"min=1,max=100"`
}

const defaultLocationLimit = 30

// Export ranges.
const (
	ExportRangeDay   = "day"
	ExportRangeWeek  = "week"
	ExportRangeMonth = "month"
	ExportRangeAll   = "all"
)

// ExportQueryRequest holds the query of GET /projects/{projectID}/export.
type ExportQueryRequest struct {
	Range  string `json:"range" validate:"oneof=day week month all"`
	Search string `json:"search" validate:"max=100"`
}

// Since returns the lower bound of the range relative to now, or nil for all.
func (q ExportQueryRequest) Since(now time.Time) *time.Time {
	var window time.Duration
	switch q.Range {
	case ExportRangeDay:
		window = 24 * time.Hour
	case ExportRangeWeek:
		window = 7 * 24 * time.Hour
	case ExportRangeMonth:
		window = 30 * 24 * time.Hour
	default:
		return nil
	}
	since := now.Add(-window)
	return &since
}

// parseEventsQuery reads and bounds the listing query.
func (h *Handler) parseEventsQuery(r *http.Request) (EventsQueryRequest, error) {
	q := EventsQueryRequest{
		Search:  queryString(r, "search", ""),
		SortBy:  queryString(r, "sortBy", "timestamp"),
		SortDir: queryString(r, "sortDir", models.SortDesc),
	}
	var err error
	if q.Page, err = queryInt(r, "page", 1); err != nil {
		return q, err
	}
	if q.PageSize, err = queryInt(r, "pageSize", h.cfg.API.DefaultPageSize); err != nil {
		return q, err
	}
	return q, nil
}
