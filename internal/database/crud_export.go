// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/beacon/internal/models"
)

// ExportProjectEvents returns every event of a project at or after since
// (nil means all time) whose address contains search, newest first.
func (db *DB) ExportProjectEvents(ctx context.Context, projectID string, since *time.Time, search string) ([]models.Event, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := eventFilter(projectID, strings.TrimSpace(search), since)
	query := `SELECT ` + eventColumns + ` FROM events ` + where + ` ORDER BY timestamp DESC, id DESC`

	events, err := db.queryEvents(ctx, "export", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export events: %w", err)
	}
	return events, nil
}
