// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
)

type fakeJetStream struct {
	streamErr error
	createErr error
	updateErr error
	created   *jetstream.StreamConfig
	updated   *jetstream.StreamConfig
}

func (f *fakeJetStream) Stream(context.Context, string) (jetstream.Stream, error) {
	return nil, f.streamErr
}

func (f *fakeJetStream) CreateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.created = &cfg
	return nil, f.createErr
}

func (f *fakeJetStream) UpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.updated = &cfg
	return nil, f.updateErr
}

func TestEnsureStream(t *testing.T) {
	t.Parallel()

	cfg := DefaultStreamConfig("BEACON_EVENTS")
	boom := errors.New("boom")

	tests := []struct {
		name        string
		js          *fakeJetStream
		wantErr     error
		wantCreated bool
		wantUpdated bool
	}{
		{"existing stream is updated", &fakeJetStream{}, nil, false, true},
		{"missing stream is created", &fakeJetStream{streamErr: jetstream.ErrStreamNotFound}, nil, true, false},
		{"lookup failure", &fakeJetStream{streamErr: boom}, boom, false, false},
		{"create failure", &fakeJetStream{streamErr: jetstream.ErrStreamNotFound, createErr: boom}, boom, true, false},
		{"update failure", &fakeJetStream{updateErr: boom}, boom, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := EnsureStream(context.Background(), tt.js, cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("EnsureStream() error = %v, want %v", err, tt.wantErr)
			}
			if (tt.js.created != nil) != tt.wantCreated {
				t.Errorf("created = %v, want %v", tt.js.created != nil, tt.wantCreated)
			}
			if (tt.js.updated != nil) != tt.wantUpdated {
				t.Errorf("updated = %v, want %v", tt.js.updated != nil, tt.wantUpdated)
			}
		})
	}
}

func TestStreamConfigMapping(t *testing.T) {
	t.Parallel()

	js := DefaultStreamConfig("BEACON_EVENTS").jetstreamConfig()
	if js.Name != "BEACON_EVENTS" {
		t.Errorf("Name = %q", js.Name)
	}
	if len(js.Subjects) != 1 || js.Subjects[0] != "events.>" {
		t.Errorf("Subjects = %v", js.Subjects)
	}
	if js.Storage != jetstream.FileStorage || js.Discard != jetstream.DiscardOld {
		t.Errorf("unexpected storage/discard: %v/%v", js.Storage, js.Discard)
	}
	if js.Duplicates <= 0 {
		t.Error("expected a deduplication window")
	}
}
