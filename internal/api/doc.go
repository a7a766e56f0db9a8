// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package api provides Beacon's HTTP surface, routed with Chi.

# Route Groups

  - POST /events: the public collector. Permissive CORS, per-client rate
    limiting, plain {error} and {id} bodies.
  - GET /main.js: the embed script that posts to /events.
  - /health/live, /health/ready, /metrics, /swagger/*: operational endpoints.
  - /api/v1: the dashboard API. Bearer JWT authentication, casbin
    authorization per object, the APIResponse envelope.

# Project Scoping

Dashboard handlers resolve {projectID} against the authenticated subject.
A project that does not exist and a project owned by someone else both
answer 404, so ids cannot be probed.

# Collector Flow

CollectEvent parses the payload, runs the collector authorizer, enriches the
client address with geolocation, stores the event and publishes it on the
event bus for live dashboards. Geolocation and publish failures never fail
the request.
*/
package api
