// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package collector

import (
	"errors"
	"testing"
	"time"
)

func TestParsePayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    Payload
		wantErr error
	}{
		{"number timestamp", `{"projectId":"p1","timestamp":1700000000000}`, Payload{"p1", 1700000000000}, nil},
		{"snake case project id", `{"project_id":"p2","timestamp":5}`, Payload{"p2", 5}, nil},
		{"camel case preferred", `{"projectId":"a","project_id":"b","timestamp":1}`, Payload{"a", 1}, nil},
		{"non-string camel falls back", `{"projectId":7,"project_id":"b","timestamp":1}`, Payload{"b", 1}, nil},
		{"project id trimmed", `{"projectId":"  p3 ","timestamp":1}`, Payload{"p3", 1}, nil},
		{"numeric string timestamp", `{"projectId":"p","timestamp":" 42 "}`, Payload{"p", 42}, nil},
		{"empty string timestamp", `{"projectId":"p","timestamp":""}`, Payload{"p", 0}, nil},
		{"null timestamp", `{"projectId":"p","timestamp":null}`, Payload{"p", 0}, nil},
		{"bool timestamp", `{"projectId":"p","timestamp":true}`, Payload{"p", 1}, nil},
		{"invalid json", `{"projectId":`, Payload{}, ErrInvalidJSON},
		{"array body", `[1,2]`, Payload{}, ErrInvalidPayload},
		{"string body", `"hello"`, Payload{}, ErrInvalidPayload},
		{"missing project id", `{"timestamp":1}`, Payload{}, ErrProjectIDMissing},
		{"blank project id", `{"projectId":"   ","timestamp":1}`, Payload{}, ErrProjectIDMissing},
		{"project id checked first", `{"timestamp":"abc"}`, Payload{}, ErrProjectIDMissing},
		{"missing timestamp", `{"projectId":"p"}`, Payload{}, ErrInvalidTimestamp},
		{"non numeric timestamp", `{"projectId":"p","timestamp":"soon"}`, Payload{}, ErrInvalidTimestamp},
		{"infinite timestamp", `{"projectId":"p","timestamp":"Infinity"}`, Payload{}, ErrInvalidTimestamp},
		{"object timestamp", `{"projectId":"p","timestamp":{}}`, Payload{}, ErrInvalidTimestamp},
		{"largest date", `{"projectId":"p","timestamp":8.64e15}`, Payload{"p", 8.64e15}, nil},
		{"beyond date range", `{"projectId":"p","timestamp":1e20}`, Payload{}, ErrInvalidTimestamp},
		{"beyond date range negative", `{"projectId":"p","timestamp":"-8640000000000001"}`, Payload{}, ErrInvalidTimestamp},
		{"empty array timestamp", `{"projectId":"p","timestamp":[]}`, Payload{"p", 0}, nil},
		{"single element array", `{"projectId":"p","timestamp":[5]}`, Payload{"p", 5}, nil},
		{"single string element", `{"projectId":"p","timestamp":[" 7 "]}`, Payload{"p", 7}, nil},
		{"null element", `{"projectId":"p","timestamp":[null]}`, Payload{"p", 0}, nil},
		{"nested array", `{"projectId":"p","timestamp":[[9]]}`, Payload{"p", 9}, nil},
		{"bool element", `{"projectId":"p","timestamp":[true]}`, Payload{}, ErrInvalidTimestamp},
		{"two element array", `{"projectId":"p","timestamp":[1,2]}`, Payload{}, ErrInvalidTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePayload([]byte(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParsePayload() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePayload() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPayloadTime(t *testing.T) {
	t.Parallel()

	p := Payload{ProjectID: "p", TimestampMs: 1700000000123}
	want := time.Date(2023, 11, 14, 22, 13, 20, 123000000, time.UTC)
	if got := p.Time(); !got.Equal(want) {
		t.Errorf("Time() = %v, want %v", got, want)
	}
}

func TestPayloadTimeAtRangeLimit(t *testing.T) {
	t.Parallel()

	p, err := ParsePayload([]byte(`{"projectId":"p","timestamp":8.64e15}`))
	if err != nil {
		t.Fatalf("ParsePayload() error = %v", err)
	}
	if got := p.Time().Year(); got != 275760 {
		t.Errorf("Time().Year() = %d, want 275760", got)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		geo  *GeoInfo
		want EventType
	}{
		{"missing record", nil, EventTypeUnknown},
		{"proxy wins", &GeoInfo{Proxy: true, Mobile: true, Hosting: true}, EventTypeProxy},
		{"mobile over hosting", &GeoInfo{Mobile: true, Hosting: true}, EventTypeMobile},
		{"hosting", &GeoInfo{Hosting: true}, EventTypeHosting},
		{"no flags", &GeoInfo{Country: "Canada"}, EventTypeResidential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.geo); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
