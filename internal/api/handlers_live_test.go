// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/beacon/internal/websocket"
)

func startHub(t *testing.T) *websocket.Hub {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestLiveEventsStream(t *testing.T) {
	t.Parallel()

	hub := startHub(t)
	ts := newTestServer(t, nil, hub)
	ts.store.addProject(localUser, "site", "Site")
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	header := http.Header{"Origin": {"https://dash.example.net"}}
	conn, resp, err := gorillaws.DefaultDialer.Dial(wsURL(srv, "/api/v1/projects/site/live"), header)
	if err != nil {
		t.Fatalf("dial: %v (resp %v)", err, resp)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ProjectClientCount("site") != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast("other", []byte(`{"id":"skip"}`))
	hub.Broadcast("site", []byte(`{"id":"e1"}`))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(msg); !strings.Contains(got, `"type":"event"`) || !strings.Contains(got, `"id":"e1"`) {
		t.Errorf("message = %s", got)
	}
}

func TestLiveEventsRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		origin     string
		noHub      bool
		wantStatus int
	}{
		{"unknown project", "/api/v1/projects/missing/live", "https://dash.example.net", false, http.StatusNotFound},
		{"missing origin", "/api/v1/projects/site/live", "", false, http.StatusForbidden},
		{"foreign origin", "/api/v1/projects/site/live", "https://evil.test", false, http.StatusForbidden},
		{"no hub", "/api/v1/projects/site/live", "https://dash.example.net", true, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var hub *websocket.Hub
			if !tt.noHub {
				hub = startHub(t)
			}
			ts := newTestServer(t, nil, hub)
			ts.store.addProject(localUser, "site", "Site")
			srv := httptest.NewServer(ts.router)
			defer srv.Close()

			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := gorillaws.DefaultDialer.Dial(wsURL(srv, tt.path), header)
			if err == nil {
				conn.Close()
				t.Fatal("expected handshake to fail")
			}
			if resp == nil || resp.StatusCode != tt.wantStatus {
				t.Fatalf("response = %v, want status %d", resp, tt.wantStatus)
			}
		})
	}
}
