// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package supervisor runs Beacon's long-lived services under suture v4.

Services are grouped into three layers so a failure in one does not take
down the others:

	RootSupervisor ("beacon")
	├── DataSupervisor ("data-layer")
	│   └── GeoIPMaintenanceService (cache expiry, Badger value log GC)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket.Hub
	│   └── eventbus.Consumer (recorded events to the hub)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog, bridged to zerolog by logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	if err != nil {
	    return err
	}
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
