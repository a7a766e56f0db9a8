// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package auth verifies dashboard bearer tokens.

Tokens are HS256 JWTs issued by an external identity system. The subject
claim ("sub") is the owning user id for projects, and the optional "role"
claim feeds the authz package. Beacon never issues tokens for end users;
GenerateToken exists for tooling and tests.

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	mw := auth.NewMiddleware(jwtManager, false)
	r.With(mw.Authenticate).Get("/api/v1/projects", handler)

	subject, ok := auth.SubjectFromContext(r.Context())
*/
package auth
