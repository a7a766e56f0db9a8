// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package eventbus

import (
	"testing"
	"time"

	"github.com/tomtom215/beacon/internal/models"
)

func recorded(id, projectID string) *models.RecordedEvent {
	return &models.RecordedEvent{
		Event:    *models.NewEvent(id, projectID, time.Unix(1700000000, 0), "1.2.3.4", nil),
		Hostname: "app.example.com",
	}
}

func TestNewRecordedMessage(t *testing.T) {
	t.Parallel()

	msg, err := NewRecordedMessage(recorded("ev-1", "proj-1"))
	if err != nil {
		t.Fatalf("NewRecordedMessage() error = %v", err)
	}
	if msg.UUID != "ev-1" {
		t.Errorf("UUID = %q, want ev-1", msg.UUID)
	}
	if got := msg.Metadata.Get(metadataProjectID); got != "proj-1" {
		t.Errorf("project metadata = %q, want proj-1", got)
	}

	ev, err := DecodeRecorded(msg.Payload)
	if err != nil {
		t.Fatalf("DecodeRecorded() error = %v", err)
	}
	if ev.ProjectID != "proj-1" || ev.Hostname != "app.example.com" || ev.IPAddress != "1.2.3.4" {
		t.Errorf("decoded = %+v", ev)
	}
}

func TestNewRecordedMessageGeneratesUUID(t *testing.T) {
	t.Parallel()

	msg, err := NewRecordedMessage(recorded("", "proj-1"))
	if err != nil {
		t.Fatalf("NewRecordedMessage() error = %v", err)
	}
	if msg.UUID == "" {
		t.Error("expected a generated UUID")
	}
}

func TestDecodeRecordedErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", "{"},
		{"missing project", `{"id":"ev-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := DecodeRecorded([]byte(tt.payload)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
