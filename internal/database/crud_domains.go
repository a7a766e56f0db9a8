// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

// ListDomainRules returns the allow-list of a project as matcher rules.
// It is the collector's domain rule source.
func (db *DB) ListDomainRules(ctx context.Context, projectID string) ([]collector.DomainRule, error) {
	domains, err := db.ListProjectDomains(ctx, projectID)
	if err != nil {
		return nil, err
	}
	rules := make([]collector.DomainRule, len(domains))
	for i, d := range domains {
		rules[i] = collector.DomainRule{Hostname: d.Hostname, Wildcard: d.Wildcard}
	}
	return rules, nil
}

// ListProjectDomains returns a project's domains in creation order.
func (db *DB) ListProjectDomains(ctx context.Context, projectID string) ([]models.ProjectDomain, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, hostname, wildcard, created_at
		FROM project_domains
		WHERE project_id = ?
		ORDER BY created_at, id`, projectID)
	if err != nil {
		metrics.RecordDBQuery("select", "project_domains", time.Since(start), err)
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer closeWithLog(rows, "rows")

	domains := make([]models.ProjectDomain, 0)
	for rows.Next() {
		var d models.ProjectDomain
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Hostname, &d.Wildcard, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "project_domains", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate domains: %w", err)
	}
	return domains, nil
}

// AddProjectDomain adds an allow-list entry. The value is normalized by
// models.ParseDomainValue; a duplicate (hostname, wildcard) pair returns
// ErrDomainExists.
func (db *DB) AddProjectDomain(ctx context.Context, projectID, value string) (*models.ProjectDomain, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	hostname, wildcard := models.ParseDomainValue(value)
	if hostname == "" {
		return nil, ErrInvalidDomain
	}
	if err := db.checkDomainUnique(ctx, projectID, hostname, wildcard, ""); err != nil {
		return nil, err
	}

	d := &models.ProjectDomain{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Hostname:  hostname,
		Wildcard:  wildcard,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO project_domains (id, project_id, hostname, wildcard, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.ProjectID, d.Hostname, d.Wildcard, d.CreatedAt)
	metrics.RecordDBQuery("insert", "project_domains", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to add domain: %w", err)
	}
	return d, nil
}

// UpdateProjectDomain replaces the value of an existing entry.
func (db *DB) UpdateProjectDomain(ctx context.Context, projectID, domainID, value string) (*models.ProjectDomain, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	hostname, wildcard := models.ParseDomainValue(value)
	if hostname == "" {
		return nil, ErrInvalidDomain
	}

	current, err := db.getProjectDomain(ctx, projectID, domainID)
	if err != nil {
		return nil, err
	}
	if err := db.checkDomainUnique(ctx, projectID, hostname, wildcard, domainID); err != nil {
		return nil, err
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx,
		`UPDATE project_domains SET hostname = ?, wildcard = ? WHERE id = ? AND project_id = ?`,
		hostname, wildcard, domainID, projectID)
	metrics.RecordDBQuery("update", "project_domains", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to update domain: %w", err)
	}

	current.Hostname = hostname
	current.Wildcard = wildcard
	return current, nil
}

// DeleteProjectDomain removes an entry. A missing entry returns
// ErrDomainNotFound.
func (db *DB) DeleteProjectDomain(ctx context.Context, projectID, domainID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM project_domains WHERE id = ? AND project_id = ?`, domainID, projectID)
	metrics.RecordDBQuery("delete", "project_domains", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrDomainNotFound
	}
	return nil
}

func (db *DB) getProjectDomain(ctx context.Context, projectID, domainID string) (*models.ProjectDomain, error) {
	domains, err := db.ListProjectDomains(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range domains {
		if domains[i].ID == domainID {
			return &domains[i], nil
		}
	}
	return nil, ErrDomainNotFound
}

// checkDomainUnique returns ErrDomainExists if another entry of the project
// has the same hostname and wildcard flag. excludeID skips the entry being
// updated.
func (db *DB) checkDomainUnique(ctx context.Context, projectID, hostname string, wildcard bool, excludeID string) error {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM project_domains
		WHERE project_id = ? AND hostname = ? AND wildcard = ? AND id <> ?`,
		projectID, hostname, wildcard, excludeID).Scan(&count)
	metrics.RecordDBQuery("select", "project_domains", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to check domain: %w", err)
	}
	if count > 0 {
		return ErrDomainExists
	}
	return nil
}
