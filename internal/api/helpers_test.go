// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beacon/internal/auth"
	"github.com/tomtom215/beacon/internal/authz"
	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/database"
	"github.com/tomtom215/beacon/internal/models"
	"github.com/tomtom215/beacon/internal/websocket"
)

// memStore is an in-memory Store. Setting failWith makes every call fail.
type memStore struct {
	mu       sync.Mutex
	projects map[string]models.Project
	domains  map[string][]models.ProjectDomain
	events   []models.Event
	seq      int
	failWith error

	lastQuery  models.EventListQuery
	lastSince  *time.Time
	lastSearch string
	lastLimit  int
}

func newMemStore() *memStore {
	return &memStore{
		projects: map[string]models.Project{},
		domains:  map[string][]models.ProjectDomain{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.Itoa(s.seq)
}

func (s *memStore) addProject(userID, id, name string, domains ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[id] = models.Project{ID: id, UserID: userID, Name: name, CreatedAt: time.Now().UTC()}
	for _, v := range domains {
		host, wildcard := models.ParseDomainValue(v)
		s.domains[id] = append(s.domains[id], models.ProjectDomain{
			ID: s.nextID("dom"), ProjectID: id, Hostname: host, Wildcard: wildcard,
		})
	}
}

func (s *memStore) Ping(context.Context) error { return s.failWith }

func (s *memStore) ProjectExists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	_, ok := s.projects[id]
	return ok, nil
}

func (s *memStore) ListDomainRules(_ context.Context, id string) ([]collector.DomainRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var rules []collector.DomainRule
	for _, d := range s.domains[id] {
		rules = append(rules, collector.DomainRule{Hostname: d.Hostname, Wildcard: d.Wildcard})
	}
	return rules, nil
}

func (s *memStore) ListProjects(_ context.Context, userID string) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := []models.Project{}
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CreateProject(_ context.Context, userID, name string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	p := models.Project{ID: s.nextID("proj"), UserID: userID, Name: name, CreatedAt: time.Now().UTC()}
	s.projects[p.ID] = p
	return &p, nil
}

func (s *memStore) owned(userID, id string) (models.Project, error) {
	if s.failWith != nil {
		return models.Project{}, s.failWith
	}
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return models.Project{}, database.ErrProjectNotFound
	}
	return p, nil
}

func (s *memStore) GetProject(_ context.Context, userID, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *memStore) RenameProject(_ context.Context, userID, id, name string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	p.Name = name
	s.projects[id] = p
	return &p, nil
}

func (s *memStore) DeleteProject(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if p, ok := s.projects[id]; ok && p.UserID == userID {
		delete(s.projects, id)
		delete(s.domains, id)
	}
	return nil
}

func (s *memStore) ListProjectDomains(_ context.Context, projectID string) ([]models.ProjectDomain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	return append([]models.ProjectDomain(nil), s.domains[projectID]...), nil
}

func (s *memStore) AddProjectDomain(_ context.Context, projectID, value string) (*models.ProjectDomain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	host, wildcard := models.ParseDomainValue(value)
	for _, d := range s.domains[projectID] {
		if d.Hostname == host && d.Wildcard == wildcard {
			return nil, database.ErrDomainExists
		}
	}
	d := models.ProjectDomain{ID: s.nextID("dom"), ProjectID: projectID, Hostname: host, Wildcard: wildcard}
	s.domains[projectID] = append(s.domains[projectID], d)
	return &d, nil
}

func (s *memStore) UpdateProjectDomain(_ context.Context, projectID, domainID, value string) (*models.ProjectDomain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	host, wildcard := models.ParseDomainValue(value)
	for i, d := range s.domains[projectID] {
		if d.ID == domainID {
			d.Hostname, d.Wildcard = host, wildcard
			s.domains[projectID][i] = d
			return &d, nil
		}
	}
	return nil, database.ErrDomainNotFound
}

func (s *memStore) DeleteProjectDomain(_ context.Context, projectID, domainID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	list := s.domains[projectID]
	for i, d := range list {
		if d.ID == domainID {
			s.domains[projectID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return database.ErrDomainNotFound
}

func (s *memStore) InsertEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.events = append(s.events, *e)
	return nil
}

func (s *memStore) eventsOf(projectID string) []models.Event {
	var out []models.Event
	for _, e := range s.events {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) ListProjectEvents(_ context.Context, projectID string, q models.EventListQuery) (*models.EventPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.lastQuery = q
	items := s.eventsOf(projectID)
	if items == nil {
		items = []models.Event{}
	}
	return &models.EventPage{Items: items, Total: int64(len(items)), Page: q.Page, PageSize: q.PageSize}, nil
}

func (s *memStore) ListProjectLocations(_ context.Context, projectID string, limit int) ([]models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.lastLimit = limit
	return []models.Location{}, nil
}

func (s *memStore) GetProjectOverview(_ context.Context, projectID string, since time.Time) (*models.Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.lastSince = &since
	return &models.Overview{TotalEvents: int64(len(s.eventsOf(projectID))), Since: since}, nil
}

func (s *memStore) ExportProjectEvents(_ context.Context, projectID string, since *time.Time, search string) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.lastSince, s.lastSearch = since, search
	return s.eventsOf(projectID), nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.RecordedEvent
	err    error
}

func (p *recordingPublisher) PublishRecorded(_ context.Context, ev *models.RecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) published() []*models.RecordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*models.RecordedEvent(nil), p.events...)
}

type stubGeo struct {
	geo *collector.GeoInfo
	err error
}

func (g stubGeo) Resolve(context.Context, string) (*collector.GeoInfo, error) {
	return g.geo, g.err
}

var errStoreDown = errors.New("database is closed")

func testConfig() *config.Config {
	return &config.Config{
		Collector: config.CollectorConfig{
			PublicOrigin:      "https://collect.example.net",
			RateLimitDisabled: true,
			MaxBodyBytes:      1024,
		},
		Security: config.SecurityConfig{
			AuthDisabled:      true,
			CORSOrigins:       []string{"https://dash.example.net"},
			RateLimitDisabled: true,
		},
		Authz: config.AuthzConfig{DefaultRole: "editor"},
		API:   config.APIConfig{DefaultPageSize: 25, MaxPageSize: 100},
	}
}

type testServer struct {
	store     *memStore
	publisher *recordingPublisher
	handler   *Handler
	router    http.Handler
}

// newTestServer builds the full router with authentication disabled, so
// every dashboard request runs as auth.LocalSubject.
func newTestServer(t *testing.T, cfg *config.Config, hub *websocket.Hub) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	store := newMemStore()
	pub := &recordingPublisher{}
	h := NewHandler(store, nil, pub, hub, cfg)

	enforcer, err := authz.NewEnforcer(&cfg.Authz)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	router := NewRouter(h, auth.NewMiddleware(nil, true), authz.NewMiddleware(enforcer), cfg)
	return &testServer{store: store, publisher: pub, handler: h, router: router.SetupChi()}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// apiEnvelope decodes an APIResponse with its data kept raw.
type apiEnvelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Error    *models.APIError `json:"error"`
	Metadata models.Metadata  `json:"metadata"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return env
}

var localUser = auth.LocalSubject.ID
