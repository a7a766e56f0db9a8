// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/beacon/internal/auth"
	"github.com/tomtom215/beacon/internal/authz"
	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/middleware"
)

// slowRequestThreshold marks requests logged at warn level.
const slowRequestThreshold = time.Second

// Router assembles the HTTP routes.
type Router struct {
	handler     *Handler
	authn       *auth.Middleware
	authz       *authz.Middleware
	collectorMW *ChiMiddleware
	dashboardMW *ChiMiddleware
}

// NewRouter creates a router for handler.
func NewRouter(handler *Handler, authn *auth.Middleware, authzMW *authz.Middleware, cfg *config.Config) *Router {
	return &Router{
		handler:     handler,
		authn:       authn,
		authz:       authzMW,
		collectorMW: NewChiMiddleware(CollectorMiddlewareConfig(&cfg.Collector)),
		dashboardMW: NewChiMiddleware(DashboardMiddlewareConfig(&cfg.Security)),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(slowRequestThreshold))

	// Collector. Subrouter middleware runs before route matching, so CORS
	// answers preflight requests without an OPTIONS route.
	r.Route("/events", func(r chi.Router) {
		r.Use(router.collectorMW.CORS())
		r.Use(router.collectorMW.RateLimit())
		r.Post("/", h.CollectEvent)
	})
	r.Get("/main.js", h.EmbedScript)
	r.Head("/main.js", h.EmbedScript)

	// Operational endpoints.
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Dashboard API.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.dashboardMW.CORS())
		r.Use(router.dashboardMW.RateLimit())
		r.Use(router.authn.Authenticate)

		r.Route("/projects", func(r chi.Router) {
			projects := router.authz.Authorize(authz.ObjectProjects)
			r.With(projects).Get("/", h.ListProjects)
			r.With(projects).Post("/", h.CreateProject)

			r.Route("/{projectID}", func(r chi.Router) {
				r.With(projects).Get("/", h.GetProject)
				r.With(projects).Patch("/", h.RenameProject)
				r.With(projects).Delete("/", h.DeleteProject)

				r.Route("/domains", func(r chi.Router) {
					r.Use(router.authz.Authorize(authz.ObjectDomains))
					r.Get("/", h.ListDomains)
					r.Post("/", h.AddDomain)
					r.Put("/{domainID}", h.UpdateDomain)
					r.Delete("/{domainID}", h.DeleteDomain)
				})

				r.Group(func(r chi.Router) {
					r.Use(router.authz.Authorize(authz.ObjectEvents))
					r.Get("/live", h.LiveEvents)

					r.Group(func(r chi.Router) {
						r.Use(chimiddleware.Compress(5, "application/json"))
						r.Get("/events", h.ListEvents)
						r.Get("/locations", h.ListLocations)
						r.Get("/overview", h.GetOverview)
						r.Get("/export", h.ExportEvents)
					})
				})
			})
		})
	})

	return r
}
