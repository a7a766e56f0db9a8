// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

// Event listing bounds.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// eventSortColumns whitelists sortable fields. Column names are never taken
// from the request.
var eventSortColumns = map[string]string{
	"timestamp": "timestamp",
	"ipAddress": "ip_address",
	"type":      "type",
	"country":   "country",
	"region":    "region",
	"city":      "city",
	"zip":       "zip",
	"isp":       "isp",
	"asName":    "as_name",
}

// IsSortableEventField reports whether field may be passed as SortBy.
func IsSortableEventField(field string) bool {
	_, ok := eventSortColumns[field]
	return ok
}

const eventColumns = `id, project_id, timestamp, ip_address, type, lat, lon, country, region, city, zip, isp, as_name`

// InsertEvent stores a recorded event.
func (db *DB) InsertEvent(ctx context.Context, e *models.Event) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.Timestamp.UTC(), e.IPAddress, string(e.Type),
		floatArg(e.Lat), floatArg(e.Lon), stringArg(e.Country), stringArg(e.Region),
		stringArg(e.City), stringArg(e.Zip), stringArg(e.ISP), stringArg(e.ASName))
	metrics.RecordDBQuery("insert", "events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// normalizeEventQuery applies defaults and bounds to a listing query.
func normalizeEventQuery(q models.EventListQuery) models.EventListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if _, ok := eventSortColumns[q.SortBy]; !ok {
		q.SortBy = "timestamp"
	}
	if q.SortDir != models.SortAsc {
		q.SortDir = models.SortDesc
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// eventFilter builds the WHERE clause shared by listing and export.
func eventFilter(projectID, search string, since *time.Time) (string, []interface{}) {
	where := `WHERE project_id = ?`
	args := []interface{}{projectID}
	if search != "" {
		where += ` AND contains(ip_address, ?)`
		args = append(args, search)
	}
	if since != nil {
		where += ` AND timestamp >= ?`
		args = append(args, since.UTC())
	}
	return where, args
}

// ListProjectEvents returns one page of a project's events and the total
// number of events matching the search.
func (db *DB) ListProjectEvents(ctx context.Context, projectID string, q models.EventListQuery) (*models.EventPage, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	q = normalizeEventQuery(q)
	where, args := eventFilter(projectID, q.Search, nil)

	start := time.Now()
	var total int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events `+where, args...).Scan(&total)
	metrics.RecordDBQuery("count", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	dir := "DESC"
	if q.SortDir == models.SortAsc {
		dir = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM events %s ORDER BY %s %s NULLS LAST, id %s LIMIT ? OFFSET ?`,
		eventColumns, where, eventSortColumns[q.SortBy], dir, dir)
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)

	items, err := db.queryEvents(ctx, "select", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return &models.EventPage{
		Items:    items,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

func (db *DB) queryEvents(ctx context.Context, operation, query string, args ...interface{}) ([]models.Event, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery(operation, "events", time.Since(start), err)
		return nil, err
	}
	defer closeWithLog(rows, "rows")

	events := make([]models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	err = rows.Err()
	metrics.RecordDBQuery(operation, "events", time.Since(start), err)
	return events, err
}

func scanEvent(rows *sql.Rows) (models.Event, error) {
	var (
		e                                   models.Event
		eventType                           string
		lat, lon                            sql.NullFloat64
		country, region, city, zip, isp, as sql.NullString
	)
	if err := rows.Scan(&e.ID, &e.ProjectID, &e.Timestamp, &e.IPAddress, &eventType,
		&lat, &lon, &country, &region, &city, &zip, &isp, &as); err != nil {
		return e, fmt.Errorf("failed to scan event: %w", err)
	}
	e.Timestamp = e.Timestamp.UTC()
	e.Type = collector.EventType(eventType)
	e.Lat = nullFloat(lat)
	e.Lon = nullFloat(lon)
	e.Country = nullString(country)
	e.Region = nullString(region)
	e.City = nullString(city)
	e.Zip = nullString(zip)
	e.ISP = nullString(isp)
	e.ASName = nullString(as)
	return e, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

// floatArg and stringArg bind optional values through driver.Valuer types.
func floatArg(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func stringArg(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
