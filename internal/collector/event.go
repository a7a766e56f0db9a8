// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package collector

// GeoInfo is the enrichment record for a client address. A nil *GeoInfo
// means no record was available; callers must not substitute a zero value.
type GeoInfo struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Country   string  `json:"country,omitempty"`
	Region    string  `json:"region,omitempty"`
	City      string  `json:"city,omitempty"`
	Zip       string  `json:"zip,omitempty"`
	ISP       string  `json:"isp,omitempty"`
	ASName    string  `json:"as_name,omitempty"`
	Proxy     bool    `json:"proxy"`
	Mobile    bool    `json:"mobile"`
	Hosting   bool    `json:"hosting"`
	Source    string  `json:"source,omitempty"`
}

// EventType classifies the network a visit came from.
type EventType string

const (
	EventTypeProxy       EventType = "proxy"
	EventTypeMobile      EventType = "mobile"
	EventTypeHosting     EventType = "hosting"
	EventTypeResidential EventType = "residential"
	EventTypeUnknown     EventType = "unknown"
)

// EventTypes lists every classification in display order.
var EventTypes = []EventType{
	EventTypeProxy, EventTypeMobile, EventTypeHosting, EventTypeResidential, EventTypeUnknown,
}

// Classify derives the event type from an optional geolocation record.
// Proxy takes precedence over mobile, mobile over hosting. A record with no
// flag set is residential; a missing record is unknown.
func Classify(geo *GeoInfo) EventType {
	switch {
	case geo == nil:
		return EventTypeUnknown
	case geo.Proxy:
		return EventTypeProxy
	case geo.Mobile:
		return EventTypeMobile
	case geo.Hosting:
		return EventTypeHosting
	default:
		return EventTypeResidential
	}
}
