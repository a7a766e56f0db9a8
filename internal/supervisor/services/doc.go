// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

// Package services adapts Beacon components that do not speak suture's
// Serve(ctx) error lifecycle. Components that already do, such as the
// websocket hub and the event bus consumer, are added to the tree directly.
package services
