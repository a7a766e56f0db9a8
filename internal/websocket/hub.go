// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types.
const (
	MessageTypeEvent = "event"
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
)

// Message is the frame exchanged with dashboards.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrHubStopped is returned by Register when the caller gives up before the
// hub accepts the client.
var ErrHubStopped = errors.New("websocket hub not accepting clients")

type projectMessage struct {
	projectID string
	data      []byte
}

// Hub tracks connected clients and fans out project events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan projectMessage
	register   chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub. It does nothing until Serve runs.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan projectMessage, 256),
		register:   make(chan *Client),
	}
}

// Register hands c to the hub, waiting until the hub accepts it or ctx ends.
func (h *Hub) Register(ctx context.Context, c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-ctx.Done():
		return ErrHubStopped
	}
}

// Serve runs the hub until ctx is canceled, then closes every client.
//
// Registrations are drained before broadcasts so a client registered
// ahead of an event is guaranteed to see it.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.register:
			h.add(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case c := <-h.register:
			h.add(c)
		case m := <-h.broadcast:
			h.broadcastToProject(m)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Debug().Str("project_id", c.projectID).Int("total_clients", n).Msg("websocket client connected")
}

// remove is safe to call for a client the hub already dropped.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Debug().Str("project_id", c.projectID).Int("total_clients", n).Msg("websocket client disconnected")
}

// sendTo queues data for one client without blocking. It reports false when
// the client is no longer registered or its buffer is full. The send
// channel is only closed under h.mu, so holding it here keeps the send safe.
func (h *Hub) sendTo(c *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[c] {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Broadcast queues payload, a JSON encoded recorded event, for clients
// watching projectID. It never blocks; when the queue is full the event is
// dropped and counted.
func (h *Hub) Broadcast(projectID string, payload []byte) {
	data, err := json.Marshal(Message{Type: MessageTypeEvent, Data: payload})
	if err != nil {
		logging.Error().Err(err).Str("project_id", projectID).Msg("Failed to encode websocket message")
		return
	}

	select {
	case h.broadcast <- projectMessage{projectID: projectID, data: data}:
	default:
		metrics.WSDropped.Inc()
		logging.Warn().Str("project_id", projectID).Msg("broadcast channel full, dropping event")
	}
}

// broadcastToProject delivers in client ID order. Clients with a full
// buffer are disconnected.
func (h *Hub) broadcastToProject(m projectMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c.projectID == m.projectID {
			clients = append(clients, c)
		}
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, c := range clients {
		select {
		case c.send <- m.data:
			metrics.WSMessagesSent.Inc()
		default:
			metrics.WSDropped.Inc()
			close(c.send)
			delete(h.clients, c)
		}
	}
	metrics.WSConnections.Set(float64(len(h.clients)))
}

func (h *Hub) shutdown(ctx context.Context) {
	n := h.ClientCount()
	h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", n).
		Msg("websocket hub stopped")
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.WSConnections.Set(0)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ProjectClientCount returns the number of clients watching projectID.
func (h *Hub) ProjectClientCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.projectID == projectID {
			n++
		}
	}
	return n
}
