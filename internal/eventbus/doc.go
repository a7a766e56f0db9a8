// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package eventbus carries recorded collector events to live subscribers.

The collector publishes a [models.RecordedEvent] on [TopicRecorded] after a
row is stored. A [Consumer] reads the topic and hands every payload to a
[Sink], normally the websocket hub, which fans it out to dashboards watching
the event's project.

Two backends are supported:

  - gochannel: in-process watermill GoChannel, the default for single-node
    deployments.
  - nats: NATS JetStream through watermill-nats, either against an external
    server or an embedded nats-server started by [NewEmbeddedServer].

Publishing goes through a circuit breaker so a broken broker never slows the
collector down; a failed publish is logged and counted, and the event row
stays in DuckDB.
*/
package eventbus
