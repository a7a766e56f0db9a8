// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// Timestamps are stored as UTC TIMESTAMP values written by the application.
var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`,

	// (project_id, hostname, wildcard) uniqueness is enforced in crud_domains.go
	// so that UPDATE can rewrite the hostname in place.
	`CREATE TABLE IF NOT EXISTS project_domains (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		hostname TEXT NOT NULL,
		wildcard BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		ip_address TEXT NOT NULL,
		type TEXT NOT NULL,
		lat DOUBLE,
		lon DOUBLE,
		country TEXT,
		region TEXT,
		city TEXT,
		zip TEXT,
		isp TEXT,
		as_name TEXT
	);`,
}

// createIndexes creates indexes for the lookup paths of the collector and
// the dashboard listings
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}

var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_project_domains_project_id ON project_domains(project_id);`,
	`CREATE INDEX IF NOT EXISTS idx_project_domains_hostname ON project_domains(hostname);`,
	`CREATE INDEX IF NOT EXISTS idx_events_project_id ON events(project_id);`,
	`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);`,
}
