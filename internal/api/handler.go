// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"context"
	"time"

	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/eventbus"
	"github.com/tomtom215/beacon/internal/models"
	"github.com/tomtom215/beacon/internal/websocket"
)

// Store is the persistence the handlers need. *database.DB implements it.
type Store interface {
	collector.ProjectLookup
	collector.DomainRuleSource

	Ping(ctx context.Context) error

	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	CreateProject(ctx context.Context, userID, name string) (*models.Project, error)
	GetProject(ctx context.Context, userID, id string) (*models.Project, error)
	RenameProject(ctx context.Context, userID, id, name string) (*models.Project, error)
	DeleteProject(ctx context.Context, userID, id string) error

	ListProjectDomains(ctx context.Context, projectID string) ([]models.ProjectDomain, error)
	AddProjectDomain(ctx context.Context, projectID, value string) (*models.ProjectDomain, error)
	UpdateProjectDomain(ctx context.Context, projectID, domainID, value string) (*models.ProjectDomain, error)
	DeleteProjectDomain(ctx context.Context, projectID, domainID string) error

	InsertEvent(ctx context.Context, e *models.Event) error
	ListProjectEvents(ctx context.Context, projectID string, q models.EventListQuery) (*models.EventPage, error)
	ListProjectLocations(ctx context.Context, projectID string, limit int) ([]models.Location, error)
	GetProjectOverview(ctx context.Context, projectID string, since time.Time) (*models.Overview, error)
	ExportProjectEvents(ctx context.Context, projectID string, since *time.Time, search string) ([]models.Event, error)
}

// GeoResolver enriches client addresses. *geoip.Resolver implements it.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (*collector.GeoInfo, error)
}

// Handler holds the dependencies of every HTTP handler.
type Handler struct {
	store      Store
	authorizer *collector.Authorizer
	geo        GeoResolver
	publisher  eventbus.Publisher
	hub        *websocket.Hub
	cfg        *config.Config
	startTime  time.Time
	now        func() time.Time
	newID      func() string
}

// NewHandler wires the handlers. geo, publisher and hub may be nil: events
// are then stored unenriched, not published, and the live route answers 503.
func NewHandler(store Store, geo GeoResolver, publisher eventbus.Publisher, hub *websocket.Hub, cfg *config.Config) *Handler {
	return &Handler{
		store:      store,
		authorizer: collector.NewAuthorizer(store, store),
		geo:        geo,
		publisher:  publisher,
		hub:        hub,
		cfg:        cfg,
		startTime:  time.Now(),
		now:        time.Now,
		newID:      newEventID,
	}
}
