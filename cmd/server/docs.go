// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

// Package main provides the Beacon HTTP server
//
// Beacon records page-view events from websites that embed its script and
// serves per-project dashboards over the recorded data.
//
// @title Beacon API
// @version 1.0
// @description Web analytics collector with per-project domain authorization
// @description
// @description ## Collector
// @description
// @description `POST /events` is public. An event is accepted only when the
// @description request hostname (Origin, then Referer, then the request URL)
// @description matches one of the project's allowed domains. Rejections use a
// @description flat `{"error": "..."}` body.
// @description
// @description ## Authentication
// @description
// @description Dashboard endpoints under `/api/v1` require a JWT bearer token.
// @description WebSocket clients may pass the token as the `access_token` query
// @description parameter on the upgrade request.
// @description
// @description ## Rate Limiting
// @description
// @description The collector and the dashboard API are rate limited per client
// @description address. Limited requests answer 429.
// @description
// @description ## Error Responses
// @description
// @description Dashboard error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message"
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-01-18T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/beacon/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:3857
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token: "Bearer <token>".
//
// @tag.name Collector
// @tag.description Public event collection and the embeddable script
//
// @tag.name Projects
// @tag.description Project management for the authenticated owner
//
// @tag.name Domains
// @tag.description Allowed-domain rules per project
//
// @tag.name Events
// @tag.description Event listing, locations, overview and export
//
// @tag.name Realtime
// @tag.description Live event stream over WebSocket
//
// @tag.name Core
// @tag.description Health checks and metrics
package main
