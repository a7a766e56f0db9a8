// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/beacon/internal/database"
)

// Error codes returned in APIError.Code.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeRateLimited    = "RATE_LIMITED"
	CodeTimeout        = "TIMEOUT"
	CodeUnavailable    = "SERVICE_UNAVAILABLE"
	CodeInternal       = "INTERNAL_ERROR"
)

// respondStoreError maps storage errors onto HTTP responses.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrProjectNotFound):
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Project not found", nil)
	case errors.Is(err, database.ErrDomainNotFound):
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Domain not found", nil)
	case errors.Is(err, database.ErrDomainExists):
		respondError(w, r, http.StatusConflict, CodeConflict, "Domain already exists for this project", nil)
	case errors.Is(err, database.ErrInvalidDomain):
		respondError(w, r, http.StatusBadRequest, CodeValidation, "domain has an invalid domain format", nil)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, CodeTimeout, "Request timed out", err)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Internal server error", err)
	}
}
