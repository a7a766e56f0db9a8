// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/beacon/internal/config"
)

type delivery struct {
	projectID string
	payload   []byte
}

type chanSink struct {
	ch chan delivery
}

func newChanSink() *chanSink {
	return &chanSink{ch: make(chan delivery, 16)}
}

func (s *chanSink) Broadcast(projectID string, payload []byte) {
	s.ch <- delivery{projectID: projectID, payload: payload}
}

func (s *chanSink) wait(t *testing.T, timeout time.Duration) delivery {
	t.Helper()
	select {
	case d := <-s.ch:
		return d
	case <-time.After(timeout):
		t.Fatal("timed out waiting for delivery")
		return delivery{}
	}
}

func testLogger() watermill.LoggerAdapter {
	return watermill.NopLogger{}
}

func startConsumer(t *testing.T, sub message.Subscriber, sink Sink) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c := NewConsumer(sub, sink, DefaultConsumerConfig(), testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Serve(ctx) //nolint:errcheck // returns context.Canceled on shutdown
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-c.Started():
	case <-time.After(10 * time.Second):
		t.Fatal("consumer did not start")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	b, err := New(context.Background(), &config.EventBusConfig{Backend: BackendGoChannel}, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()
	if b.Backend() != BackendGoChannel {
		t.Errorf("Backend() = %q", b.Backend())
	}

	if _, err := New(context.Background(), &config.EventBusConfig{Backend: "kafka"}, testLogger()); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestGoChannelRoundTrip(t *testing.T) {
	t.Parallel()

	b := NewGoChannel(testLogger())
	t.Cleanup(func() { _ = b.Close() })

	sink := newChanSink()
	startConsumer(t, b.Subscriber(), sink)

	if err := b.PublishRecorded(context.Background(), recorded("ev-1", "proj-1")); err != nil {
		t.Fatalf("PublishRecorded() error = %v", err)
	}

	d := sink.wait(t, 5*time.Second)
	if d.projectID != "proj-1" {
		t.Errorf("projectID = %q, want proj-1", d.projectID)
	}
	ev, err := DecodeRecorded(d.payload)
	if err != nil {
		t.Fatalf("DecodeRecorded() error = %v", err)
	}
	if ev.ID != "ev-1" {
		t.Errorf("event ID = %q, want ev-1", ev.ID)
	}
}

func TestConsumerDropsUndecodable(t *testing.T) {
	t.Parallel()

	b := NewGoChannel(testLogger())
	t.Cleanup(func() { _ = b.Close() })

	sink := newChanSink()
	startConsumer(t, b.Subscriber(), sink)

	if err := b.publisher.Publish(TopicRecorded, message.NewMessage(watermill.NewUUID(), []byte("not json"))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := b.PublishRecorded(context.Background(), recorded("ev-2", "proj-2")); err != nil {
		t.Fatalf("PublishRecorded() error = %v", err)
	}

	if d := sink.wait(t, 5*time.Second); d.projectID != "proj-2" {
		t.Errorf("projectID = %q, want proj-2", d.projectID)
	}
}

func TestPublishAfterClose(t *testing.T) {
	t.Parallel()

	b := NewGoChannel(testLogger())
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if err := b.PublishRecorded(context.Background(), recorded("ev-1", "p")); !errors.Is(err, ErrClosed) {
		t.Errorf("PublishRecorded() error = %v, want ErrClosed", err)
	}
}

type failingPublisher struct {
	mu    sync.Mutex
	calls int
}

func (f *failingPublisher) Publish(string, ...*message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("broker unavailable")
}

func (f *failingPublisher) Close() error { return nil }

func TestPublishBreakerOpens(t *testing.T) {
	t.Parallel()

	pub := &failingPublisher{}
	b := newBus("breaker-test", pub, nil)

	for i := 0; i < 5; i++ {
		if err := b.PublishRecorded(context.Background(), recorded("ev", "p")); err == nil {
			t.Fatal("expected publish error")
		}
	}

	err := b.PublishRecorded(context.Background(), recorded("ev", "p"))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("error = %v, want open breaker", err)
	}
	if pub.calls != 5 {
		t.Errorf("publisher calls = %d, want 5", pub.calls)
	}
}
