// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package models

import (
	"strings"
	"time"
)

// Project is an analytics site. Events may only be recorded for a project
// from hostnames on its domain allow-list.
type Project struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProjectDomain is one allow-list entry. Hostname never carries a "*."
// prefix; Wildcard records it instead.
type ProjectDomain struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Hostname  string    `json:"hostname"`
	Wildcard  bool      `json:"wildcard"`
	CreatedAt time.Time `json:"createdAt"`
}

// Display renders the entry the way users type it.
func (d ProjectDomain) Display() string {
	if d.Wildcard {
		return "*." + d.Hostname
	}
	return d.Hostname
}

// DomainResponse is the API shape of a ProjectDomain.
type DomainResponse struct {
	ProjectDomain
	Value string `json:"value"`
}

// NewDomainResponse pairs a domain with its display value.
func NewDomainResponse(d ProjectDomain) DomainResponse {
	return DomainResponse{ProjectDomain: d, Value: d.Display()}
}

// ParseDomainValue lower-cases and trims a user-entered domain and splits
// off a leading "*." into the wildcard flag.
func ParseDomainValue(value string) (hostname string, wildcard bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if rest, ok := strings.CutPrefix(v, "*."); ok {
		return rest, true
	}
	return v, false
}

// ProjectRequest is the body of project create and rename.
type ProjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// DomainRequest is the body of domain add and update.
type DomainRequest struct {
	Domain string `json:"domain" validate:"required,max=255,domainvalue"`
}
