// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/tomtom215/beacon/docs" // Import generated swagger docs
	"github.com/tomtom215/beacon/internal/api"
	"github.com/tomtom215/beacon/internal/auth"
	"github.com/tomtom215/beacon/internal/authz"
	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/database"
	"github.com/tomtom215/beacon/internal/eventbus"
	"github.com/tomtom215/beacon/internal/geoip"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/supervisor"
	"github.com/tomtom215/beacon/internal/supervisor/services"
	ws "github.com/tomtom215/beacon/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().Str("version", version).Msg("Starting Beacon with supervisor tree")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("environment", cfg.Server.Environment).
		Bool("auth_enabled", cfg.AuthEnabled()).
		Str("eventbus", cfg.EventBus.Backend).
		Msg("Configuration loaded")
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS_ORIGINS allows any origin for the dashboard API")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	resolver, geoStore, err := initGeoIP(&cfg.GeoIP)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize GeoIP")
	}
	if geoStore != nil {
		defer func() {
			if err := geoStore.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing GeoIP cache")
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := eventbus.New(ctx, &cfg.EventBus, logging.NewWatermillLogger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	logging.Info().Str("backend", bus.Backend()).Msg("Event bus initialized")

	wsHub := ws.NewHub()
	consumer := eventbus.NewConsumer(bus.Subscriber(), wsHub, eventbus.DefaultConsumerConfig(), logging.NewWatermillLogger())

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled() {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
	} else {
		logging.Warn().Msg("Authentication disabled - dashboard API is open to the local user")
	}
	authn := auth.NewMiddleware(jwtManager, cfg.Security.AuthDisabled)

	enforcer, err := authz.NewEnforcer(&cfg.Authz)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}

	handler := api.NewHandler(db, resolver, bus, wsHub, cfg)
	router := api.NewRouter(handler, authn, authz.NewMiddleware(enforcer), cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewGeoIPMaintenanceService(resolver, geoStoreOrNil(geoStore), 10*time.Minute))
	tree.AddMessagingService(wsHub)
	tree.AddMessagingService(consumer)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	if err := db.Checkpoint(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Final checkpoint failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// geoStoreOrNil keeps a nil *geoip.Store from becoming a non-nil interface.
func geoStoreOrNil(s *geoip.Store) services.GarbageCollector {
	if s == nil {
		return nil
	}
	return s
}
