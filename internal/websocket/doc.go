// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package websocket streams recorded events to dashboards as they arrive.

A [Hub] owns every live connection. Each [Client] is bound to one project
when it connects and only receives events recorded for that project.

	eventbus.Consumer ──Broadcast(projectID, payload)──▶ Hub
	                                                     │
	                      ┌──────────────┬───────────────┤
	                      ▼              ▼               ▼
	                 Client(p1)     Client(p1)      Client(p2)

Each client runs two goroutines:
  - readPump: reads client frames, answers {"type":"ping"} with a pong and
    extends the read deadline on protocol pongs
  - writePump: drains the send buffer and pings the peer every pingPeriod

Messages are JSON objects of the form:

	{"type":"event","data":{...recorded event...}}

A client whose send buffer is full is disconnected rather than allowed to
slow down the hub.

The hub implements suture.Service through [Hub.Serve]; on shutdown every
client is closed.
*/
package websocket
