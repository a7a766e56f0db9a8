// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package collector

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Payload errors. Their messages are returned verbatim to the embed script.
//
//nolint:staticcheck // capitalized messages are part of the collector response contract
var (
	ErrInvalidJSON      = errors.New("Invalid JSON payload")
	ErrInvalidPayload   = errors.New("Invalid payload")
	ErrProjectIDMissing = errors.New("projectId is required")
	ErrInvalidTimestamp = errors.New("timestamp must be a number")
)

// maxTimestampMs is the largest magnitude a browser Date can represent
// (100,000,000 days either side of the epoch).
const maxTimestampMs = 8.64e15

// Payload is a decoded collector request body.
type Payload struct {
	ProjectID string
	// TimestampMs is Unix epoch milliseconds as sent by the client.
	TimestampMs float64
}

// Time converts the client timestamp to a UTC time.
func (p Payload) Time() time.Time {
	return time.UnixMilli(int64(p.TimestampMs)).UTC()
}

// ParsePayload decodes a collector body. projectId falls back to project_id
// when not a string, and timestamp is coerced the way a browser would coerce
// it to a number. A project id problem is reported before a timestamp one.
func ParsePayload(body []byte) (Payload, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Payload{}, ErrInvalidJSON
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return Payload{}, ErrInvalidPayload
	}

	projectID, ok := fields["projectId"].(string)
	if !ok {
		projectID, _ = fields["project_id"].(string)
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return Payload{}, ErrProjectIDMissing
	}

	ts, ok := coerceNumber(fields["timestamp"], hasKey(fields, "timestamp"))
	if !ok || math.IsNaN(ts) || math.IsInf(ts, 0) || math.Abs(ts) > maxTimestampMs {
		return Payload{}, ErrInvalidTimestamp
	}

	return Payload{ProjectID: projectID, TimestampMs: ts}, nil
}

func hasKey(m map[string]any, k string) bool {
	_, ok := m[k]
	return ok
}

func coerceNumber(v any, present bool) (float64, bool) {
	if !present {
		return 0, false
	}
	switch n := v.(type) {
	case nil:
		return 0, true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case []any:
		// Arrays coerce through their string form: [] is "", [x] is x.
		switch len(n) {
		case 0:
			return 0, true
		case 1:
			return coerceArrayElement(n[0])
		}
		return 0, false
	default:
		return 0, false
	}
}

// coerceArrayElement handles the only element of a one-element array. null
// stringifies to "" and booleans to "true"/"false", which is not a number.
func coerceArrayElement(v any) (float64, bool) {
	switch e := v.(type) {
	case nil:
		return 0, true
	case float64, json.Number, string, []any:
		return coerceNumber(e, true)
	default:
		return 0, false
	}
}
