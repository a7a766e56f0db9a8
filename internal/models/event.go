// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package models

import (
	"time"

	"github.com/tomtom215/beacon/internal/collector"
)

// Event is one recorded visit. Geolocation fields are nil when no record
// was available for the client address.
type Event struct {
	ID        string              `json:"id"`
	ProjectID string              `json:"projectId"`
	Timestamp time.Time           `json:"timestamp"`
	IPAddress string              `json:"ipAddress"`
	Type      collector.EventType `json:"type"`
	Lat       *float64            `json:"lat"`
	Lon       *float64            `json:"lon"`
	Country   *string             `json:"country"`
	Region    *string             `json:"region"`
	City      *string             `json:"city"`
	Zip       *string             `json:"zip"`
	ISP       *string             `json:"isp"`
	ASName    *string             `json:"asName"`
}

// NewEvent builds an event from an admitted request and an optional
// geolocation record. The type is derived from the record.
func NewEvent(id, projectID string, ts time.Time, ip string, geo *collector.GeoInfo) *Event {
	e := &Event{
		ID:        id,
		ProjectID: projectID,
		Timestamp: ts.UTC(),
		IPAddress: ip,
		Type:      collector.Classify(geo),
	}
	if geo == nil {
		return e
	}
	lat, lon := geo.Latitude, geo.Longitude
	e.Lat, e.Lon = &lat, &lon
	e.Country = optional(geo.Country)
	e.Region = optional(geo.Region)
	e.City = optional(geo.City)
	e.Zip = optional(geo.Zip)
	e.ISP = optional(geo.ISP)
	e.ASName = optional(geo.ASName)
	return e
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Sort directions for EventListQuery.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// EventListQuery selects a page of a project's events.
type EventListQuery struct {
	Page     int
	PageSize int
	Search   string
	SortBy   string
	SortDir  string
}

// EventPage is one page of events plus the total match count.
type EventPage struct {
	Items    []Event `json:"items"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// Location is a geolocated visit for map display.
type Location struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	IPAddress string    `json:"ipAddress"`
	VisitedAt time.Time `json:"visitedAt"`
	Mobile    bool      `json:"mobile"`
}

// Overview summarizes a project's recent traffic.
type Overview struct {
	ProjectID       string    `json:"projectId"`
	Name            string    `json:"name"`
	TotalEvents     int64     `json:"totalEvents"`
	MobileEvents    int64     `json:"mobileEvents"`
	UniqueIPs       int64     `json:"uniqueIps"`
	Since           time.Time `json:"since"`
	CollectorOrigin string    `json:"collectorOrigin,omitempty"`
}

// ExportRow is one element of an export download. ID is the 1-based row
// position, not the event id.
type ExportRow struct {
	ID        int     `json:"id"`
	Timestamp string  `json:"timestamp"`
	IPAddress string  `json:"ipAddress"`
	Type      string  `json:"type"`
	Country   *string `json:"country"`
	Region    *string `json:"region"`
	City      *string `json:"city"`
	Zip       *string `json:"zip"`
	ISP       *string `json:"isp"`
	ASName    *string `json:"asName"`
}

// ExportTimestampFormat is RFC 3339 in UTC with millisecond precision.
const ExportTimestampFormat = "2006-01-02T15:04:05.000Z"

// NewExportRows numbers events from 1 in the given order.
func NewExportRows(events []Event) []ExportRow {
	rows := make([]ExportRow, len(events))
	for i, e := range events {
		rows[i] = ExportRow{
			ID:        i + 1,
			Timestamp: e.Timestamp.UTC().Format(ExportTimestampFormat),
			IPAddress: e.IPAddress,
			Type:      string(e.Type),
			Country:   e.Country,
			Region:    e.Region,
			City:      e.City,
			Zip:       e.Zip,
			ISP:       e.ISP,
			ASName:    e.ASName,
		}
	}
	return rows
}

// RecordedEvent is the event bus payload announcing a stored event.
type RecordedEvent struct {
	Event
	Hostname string `json:"hostname"`
}
