// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package database provides DuckDB-backed storage for projects, their domain
allow-lists, and recorded events.

The DB type satisfies the collector's ProjectLookup and DomainRuleSource
interfaces and backs every dashboard API operation. Project-scoped reads
take a project id that the caller has already resolved for the current
owner; owner checks happen in GetProject.

Schema management:
  - createTables and createIndexes are idempotent (IF NOT EXISTS)
  - versioned migrations are recorded in schema_migrations
  - a CHECKPOINT follows initialization and precedes Close

Every query is timed through metrics.RecordDBQuery.
*/
package database
