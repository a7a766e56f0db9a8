// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package collector

import (
	"context"
	"fmt"
	"net/http"
)

// Reason explains a rejected Verdict.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonNoClientAddress      Reason = "no_client_address"
	ReasonProjectNotFound      Reason = "project_not_found"
	ReasonNoResolvableHostname Reason = "no_resolvable_hostname"
	ReasonDomainNotAllowed     Reason = "domain_not_allowed"
)

// Verdict is the outcome of one authorization check.
type Verdict struct {
	Admitted      bool
	ClientAddress string
	Hostname      string
	Reason        Reason
}

// ProjectLookup answers whether a project id exists.
type ProjectLookup interface {
	ProjectExists(ctx context.Context, projectID string) (bool, error)
}

// DomainRuleSource returns the allow-list configured for a project.
type DomainRuleSource interface {
	ListDomainRules(ctx context.Context, projectID string) ([]DomainRule, error)
}

// Request carries the inputs of one authorization check.
type Request struct {
	ProjectID  string
	Header     http.Header
	RequestURL string
}

// Authorizer runs the admission checks against the storage collaborators.
type Authorizer struct {
	projects ProjectLookup
	domains  DomainRuleSource
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(projects ProjectLookup, domains DomainRuleSource) *Authorizer {
	return &Authorizer{projects: projects, domains: domains}
}

// Authorize admits or rejects req. The returned error is non-nil only when a
// collaborator fails; in that case the Verdict must be ignored.
func (a *Authorizer) Authorize(ctx context.Context, req Request) (Verdict, error) {
	ip := ExtractClientIP(req.Header)
	if ip == "" {
		return reject(ReasonNoClientAddress, "", ""), nil
	}

	exists, err := a.projects.ProjectExists(ctx, req.ProjectID)
	if err != nil {
		return Verdict{}, fmt.Errorf("lookup project %s: %w", req.ProjectID, err)
	}
	if !exists {
		return reject(ReasonProjectNotFound, ip, ""), nil
	}

	host := ResolveHostname(req.Header, req.RequestURL)
	if host == "" {
		return reject(ReasonNoResolvableHostname, ip, ""), nil
	}

	rules, err := a.domains.ListDomainRules(ctx, req.ProjectID)
	if err != nil {
		return Verdict{}, fmt.Errorf("list domain rules for %s: %w", req.ProjectID, err)
	}
	if !MatchesAny(host, rules) {
		return reject(ReasonDomainNotAllowed, ip, host), nil
	}

	return Verdict{Admitted: true, ClientAddress: ip, Hostname: host}, nil
}

func reject(reason Reason, ip, host string) Verdict {
	return Verdict{Reason: reason, ClientAddress: ip, Hostname: host}
}
