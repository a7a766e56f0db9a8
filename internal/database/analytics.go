// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

// Location listing bounds.
const (
	DefaultLocationLimit = 30
	MaxLocationLimit     = 100
)

// ClampLocationLimit applies the default to non-positive limits and caps
// the rest.
func ClampLocationLimit(limit int) int {
	if limit < 1 {
		return DefaultLocationLimit
	}
	if limit > MaxLocationLimit {
		return MaxLocationLimit
	}
	return limit
}

// ListProjectLocations returns the most recent geolocated events of a
// project for map display.
func (db *DB) ListProjectLocations(ctx context.Context, projectID string, limit int) ([]models.Location, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, lat, lon, ip_address, timestamp, type = ?
		FROM events
		WHERE project_id = ? AND lat IS NOT NULL AND lon IS NOT NULL
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, string(collector.EventTypeMobile), projectID, ClampLocationLimit(limit))
	if err != nil {
		metrics.RecordDBQuery("select", "events", time.Since(start), err)
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	locations := make([]models.Location, 0)
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Lat, &l.Lon, &l.IPAddress, &l.VisitedAt, &l.Mobile); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		l.VisitedAt = l.VisitedAt.UTC()
		locations = append(locations, l)
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}
	return locations, nil
}

// GetProjectOverview counts events at or after since.
func (db *DB) GetProjectOverview(ctx context.Context, projectID string, since time.Time) (*models.Overview, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	since = since.UTC()
	o := &models.Overview{Since: since}

	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE type = ?),
			COUNT(DISTINCT ip_address)
		FROM events
		WHERE project_id = ? AND timestamp >= ?`,
		string(collector.EventTypeMobile), projectID, since).Scan(&o.TotalEvents, &o.MobileEvents, &o.UniqueIPs)
	metrics.RecordDBQuery("aggregate", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get project overview: %w", err)
	}
	return o, nil
}
