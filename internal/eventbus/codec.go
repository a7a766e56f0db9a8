// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package eventbus

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/beacon/internal/models"
)

// TopicRecorded is the topic recorded events are published on. Under the
// nats backend it is also the JetStream subject.
const TopicRecorded = "events.recorded"

// StreamSubjects are the subjects bound to the JetStream stream.
var StreamSubjects = []string{"events.>"}

const metadataProjectID = "project_id"

// NewRecordedMessage encodes ev as a watermill message. The event ID doubles
// as the message UUID so JetStream deduplicates redeliveries of one row.
func NewRecordedMessage(ev *models.RecordedEvent) (*message.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal recorded event: %w", err)
	}
	id := ev.ID
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set(metadataProjectID, ev.ProjectID)
	return msg, nil
}

// DecodeRecorded parses a recorded event payload.
func DecodeRecorded(payload []byte) (*models.RecordedEvent, error) {
	var ev models.RecordedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal recorded event: %w", err)
	}
	if ev.ProjectID == "" {
		return nil, fmt.Errorf("recorded event %q has no project", ev.ID)
	}
	return &ev, nil
}
