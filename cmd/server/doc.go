// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package main is the entry point for the Beacon server application.

Beacon is a self-hosted web analytics collector. Site owners create a
project, list the domains allowed to report into it, and embed /main.js.
The script posts one event per page view to the public collector endpoint,
which admits the event only when the reporting hostname matches the
project's allow-list. Admitted events are enriched with geolocation, stored
in DuckDB, and pushed to live dashboard viewers.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("beacon")
	├── DataSupervisor ("data-layer")
	│   └── GeoIP cache maintenance
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (live events)
	│   └── Recorded-event consumer (event bus -> hub)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB
 4. GeoIP: MaxMind and ip-api providers behind circuit breakers, optional Badger cache
 5. Event bus: Watermill over GoChannel or NATS JetStream
 6. Authentication: JWT or disabled (development only)
 7. Authorization: Casbin role model
 8. Supervisor Tree: Suture v4 process supervision
 9. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	HTTP_PORT=3857
	DUCKDB_PATH=/data/beacon.duckdb
	COLLECTOR_ORIGIN=https://collect.example.com
	JWT_SECRET=<32+ chars>
	CORS_ORIGINS=https://dashboard.example.com
	EVENTBUS_BACKEND=gochannel        # or nats
	NATS_EMBEDDED=true
	MAXMIND_ACCOUNT_ID=...
	MAXMIND_LICENSE_KEY=...
	LOG_LEVEL=info
	LOG_FORMAT=json

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Closes WebSocket clients with a shutdown notice
 3. Waits for in-flight requests (10s timeout)
 4. Checkpoints and closes the database, event bus and GeoIP cache
 5. Reports any services that failed to stop

# Usage Examples

Development (no auth):

	export AUTH_DISABLED=true
	go run ./cmd/server

Production:

	export ENVIRONMENT=production
	export JWT_SECRET=$(openssl rand -base64 32)
	export CORS_ORIGINS=https://dashboard.example.com
	./beacon

# API Documentation

Swagger documentation is available at /swagger/index.html when the server
is running.

# See Also

  - internal/config: Configuration management
  - internal/collector: Event admission
  - internal/api: HTTP handlers and routing
  - internal/supervisor: Process supervision
*/
package main
