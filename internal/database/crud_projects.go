// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

// ProjectExists reports whether a project with the given id exists,
// regardless of owner. It is the collector's project lookup.
func (db *DB) ProjectExists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = ?)`, id).Scan(&exists)
	metrics.RecordDBQuery("exists", "projects", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to check project: %w", err)
	}
	return exists, nil
}

// ListProjects returns the user's projects, newest first.
func (db *DB) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM projects
		WHERE user_id = ?
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		metrics.RecordDBQuery("select", "projects", time.Since(start), err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer closeWithLog(rows, "rows")

	projects := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "projects", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// CreateProject inserts a new project owned by userID.
func (db *DB) CreateProject(ctx context.Context, userID, name string) (*models.Project, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	p := &models.Project{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.CreatedAt)
	metrics.RecordDBQuery("insert", "projects", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// GetProject returns the project if it exists and belongs to userID.
// Projects of other users are reported as ErrProjectNotFound.
func (db *DB) GetProject(ctx context.Context, userID, id string) (*models.Project, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var p models.Project
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM projects
		WHERE id = ? AND user_id = ?`, id, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("select", "projects", time.Since(start), nil)
		return nil, ErrProjectNotFound
	}
	metrics.RecordDBQuery("select", "projects", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// RenameProject changes the name of a project owned by userID.
func (db *DB) RenameProject(ctx context.Context, userID, id, name string) (*models.Project, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE projects SET name = ? WHERE id = ? AND user_id = ?`, name, id, userID)
	metrics.RecordDBQuery("update", "projects", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to rename project: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, ErrProjectNotFound
	}
	return db.GetProject(ctx, userID, id)
}

// DeleteProject removes a project owned by userID together with its domains
// and events. Deleting a project that does not exist succeeds.
func (db *DB) DeleteProject(ctx context.Context, userID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	const maxAttempts = 3
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		err = db.deleteProjectTx(ctx, userID, id)
		metrics.RecordDBQuery("delete", "projects", time.Since(start), err)
		if !isTransactionConflict(err) {
			break
		}
		logging.Debug().Str("project_id", id).Int("attempt", attempt).Msg("Retrying project delete after transaction conflict")
	}
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (db *DB) deleteProjectTx(ctx context.Context, userID, id string) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	var owned bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = ? AND user_id = ?)`, id, userID).Scan(&owned); err != nil {
		return err
	}
	if !owned {
		return tx.Commit()
	}

	statements := []string{
		`DELETE FROM events WHERE project_id = ?`,
		`DELETE FROM project_domains WHERE project_id = ?`,
		`DELETE FROM projects WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
