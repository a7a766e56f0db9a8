// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/models"
)

// Middleware authenticates dashboard requests.
type Middleware struct {
	jwtManager *JWTManager
	disabled   bool
}

// NewMiddleware creates the authentication middleware. When disabled is
// true every request runs as LocalSubject and jwtManager may be nil.
func NewMiddleware(jwtManager *JWTManager, disabled bool) *Middleware {
	return &Middleware{jwtManager: jwtManager, disabled: disabled}
}

// Authenticate requires a valid bearer token and stores the Subject in the
// request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			local := LocalSubject
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), &local)))
			return
		}

		token, err := requestToken(r)
		if err != nil {
			writeUnauthorized(w, "AUTH_REQUIRED", "Authentication required")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			writeUnauthorized(w, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		subject := &Subject{ID: claims.Subject, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
	})
}

// requestToken reads the bearer token. Browsers cannot set headers on a
// WebSocket handshake, so upgrade requests may pass it as access_token.
func requestToken(r *http.Request) (string, error) {
	token, err := bearerToken(r.Header.Get("Authorization"))
	if err == nil || !isWebSocketUpgrade(r) {
		return token, err
	}
	if q := strings.TrimSpace(r.URL.Query().Get("access_token")); q != "" {
		return q, nil
	}
	return "", err
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("malformed authorization header")
	}
	return strings.TrimSpace(token), nil
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="beacon"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}
