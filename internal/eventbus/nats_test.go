// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package eventbus

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestNATSRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}
	t.Parallel()

	srv, err := NewEmbeddedServer(&ServerConfig{
		Host:     "127.0.0.1",
		Port:     -1,
		StoreDir: t.TempDir(),
		NoLog:    true,
	})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := dialNATS(ctx, DefaultNATSOptions(srv.ClientURL(), "TEST_EVENTS", "test-live"), testLogger())
	if err != nil {
		t.Fatalf("dialNATS() error = %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	sink := newChanSink()
	startConsumer(t, b.Subscriber(), sink)

	// The durable consumer delivers only new messages, so keep publishing
	// until the subscription is bound.
	deadline := time.After(20 * time.Second)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		if err := b.PublishRecorded(ctx, recorded(fmt.Sprintf("ev-%d", i), "proj-nats")); err != nil {
			t.Fatalf("PublishRecorded() error = %v", err)
		}
		select {
		case d := <-sink.ch:
			if d.projectID != "proj-nats" {
				t.Errorf("projectID = %q, want proj-nats", d.projectID)
			}
			return
		case <-ticker.C:
		case <-deadline:
			t.Fatal("no event delivered over NATS")
		}
	}
}

func TestEmbeddedServerShutdown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}
	t.Parallel()

	srv, err := NewEmbeddedServer(&ServerConfig{Host: "127.0.0.1", Port: -1, StoreDir: t.TempDir(), NoLog: true})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	if srv.ClientURL() == "" {
		t.Error("expected a client URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
