// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package collector

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

// fakeStore implements ProjectLookup and DomainRuleSource and records calls.
type fakeStore struct {
	projects     map[string][]DomainRule
	projectErr   error
	domainErr    error
	projectCalls int
	domainCalls  int
}

func (f *fakeStore) ProjectExists(_ context.Context, id string) (bool, error) {
	f.projectCalls++
	if f.projectErr != nil {
		return false, f.projectErr
	}
	_, ok := f.projects[id]
	return ok, nil
}

func (f *fakeStore) ListDomainRules(_ context.Context, id string) ([]DomainRule, error) {
	f.domainCalls++
	if f.domainErr != nil {
		return nil, f.domainErr
	}
	return f.projects[id], nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: map[string][]DomainRule{
		"proj-1": {{Hostname: "example.com", Wildcard: true}},
		"proj-2": nil,
	}}
}

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		req         Request
		wantAdmit   bool
		wantReason  Reason
		wantIP      string
		wantHost    string
		wantProject int
		wantDomain  int
	}{
		{
			name: "admitted via wildcard rule",
			req: Request{
				ProjectID: "proj-1",
				Header:    header("Origin", "https://app.example.com", HeaderCFConnectingIP, "1.2.3.4"),
			},
			wantAdmit:   true,
			wantIP:      "1.2.3.4",
			wantHost:    "app.example.com",
			wantProject: 1,
			wantDomain:  1,
		},
		{
			name: "domain not allowed",
			req: Request{
				ProjectID: "proj-1",
				Header:    header("Origin", "https://evil.com", HeaderCFConnectingIP, "1.2.3.4"),
			},
			wantReason:  ReasonDomainNotAllowed,
			wantIP:      "1.2.3.4",
			wantHost:    "evil.com",
			wantProject: 1,
			wantDomain:  1,
		},
		{
			name: "no client address stops before storage",
			req: Request{
				ProjectID: "proj-1",
				Header:    header("Origin", "https://app.example.com", HeaderXForwardedFor, "unknown"),
			},
			wantReason: ReasonNoClientAddress,
		},
		{
			name: "unknown project skips domain lookup",
			req: Request{
				ProjectID: "missing",
				Header:    header("Origin", "https://app.example.com", HeaderCFConnectingIP, "1.2.3.4"),
			},
			wantReason:  ReasonProjectNotFound,
			wantIP:      "1.2.3.4",
			wantProject: 1,
		},
		{
			name: "no hostname",
			req: Request{
				ProjectID:  "proj-1",
				Header:     header("Origin", "null", HeaderCFConnectingIP, "1.2.3.4"),
				RequestURL: "",
			},
			wantReason:  ReasonNoResolvableHostname,
			wantIP:      "1.2.3.4",
			wantProject: 1,
		},
		{
			name: "empty allow-list rejects",
			req: Request{
				ProjectID: "proj-2",
				Header:    header("Referer", "https://example.com/a", HeaderCFConnectingIPv4, "10.0.0.1"),
			},
			wantReason:  ReasonDomainNotAllowed,
			wantIP:      "10.0.0.1",
			wantHost:    "example.com",
			wantProject: 1,
			wantDomain:  1,
		},
		{
			name: "request url fallback",
			req: Request{
				ProjectID:  "proj-1",
				Header:     header(HeaderCFConnectingIP, "1.2.3.4"),
				RequestURL: "https://collect.example.com/events",
			},
			wantAdmit:   true,
			wantIP:      "1.2.3.4",
			wantHost:    "collect.example.com",
			wantProject: 1,
			wantDomain:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFakeStore()
			a := NewAuthorizer(store, store)

			v, err := a.Authorize(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Admitted != tt.wantAdmit {
				t.Errorf("Admitted = %v, want %v", v.Admitted, tt.wantAdmit)
			}
			if v.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", v.Reason, tt.wantReason)
			}
			if v.ClientAddress != tt.wantIP {
				t.Errorf("ClientAddress = %q, want %q", v.ClientAddress, tt.wantIP)
			}
			if v.Hostname != tt.wantHost {
				t.Errorf("Hostname = %q, want %q", v.Hostname, tt.wantHost)
			}
			if store.projectCalls != tt.wantProject {
				t.Errorf("project lookups = %d, want %d", store.projectCalls, tt.wantProject)
			}
			if store.domainCalls != tt.wantDomain {
				t.Errorf("domain lookups = %d, want %d", store.domainCalls, tt.wantDomain)
			}
		})
	}
}

func TestAuthorizeCollaboratorErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("database is closed")
	req := Request{
		ProjectID: "proj-1",
		Header:    header("Origin", "https://app.example.com", HeaderCFConnectingIP, "1.2.3.4"),
	}

	store := newFakeStore()
	store.projectErr = boom
	if _, err := NewAuthorizer(store, store).Authorize(context.Background(), req); !errors.Is(err, boom) {
		t.Errorf("expected project lookup error to propagate, got %v", err)
	}

	store = newFakeStore()
	store.domainErr = boom
	if _, err := NewAuthorizer(store, store).Authorize(context.Background(), req); !errors.Is(err, boom) {
		t.Errorf("expected domain lookup error to propagate, got %v", err)
	}
}
