// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package auth

import "context"

// Subject is the authenticated dashboard user.
type Subject struct {
	ID   string
	Role string
}

type contextKey string

const subjectContextKey contextKey = "auth_subject"

// WithSubject returns a copy of ctx carrying s.
func WithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// SubjectFromContext returns the subject stored by the middleware.
func SubjectFromContext(ctx context.Context) (*Subject, bool) {
	s, ok := ctx.Value(subjectContextKey).(*Subject)
	return s, ok && s != nil
}

// LocalSubject is used for every request when authentication is disabled.
// It has no role, so the authorizer's default role applies.
var LocalSubject = Subject{ID: "local"}
