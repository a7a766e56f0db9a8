// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package models defines the data structures shared by storage, the dashboard
API, and the event bus.

Database Models:
  - Project: an analytics site owned by one dashboard user
  - ProjectDomain: one allow-list entry of a project
  - Event: one recorded visit, enriched with optional geolocation

Query and Result Models:
  - EventListQuery / EventPage: paged, sorted, searchable event listing
  - Location: a geolocated visit for map display
  - Overview: 30-day project summary
  - ExportRow: one row of a JSON export download

API Models:
  - APIResponse: the dashboard response envelope
  - Request types carrying validator/v10 tags
*/
package models
