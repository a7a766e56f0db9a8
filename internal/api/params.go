// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/beacon/internal/auth"
	"github.com/tomtom215/beacon/internal/validation"
)

// maxRequestBodyBytes caps dashboard JSON bodies.
const maxRequestBodyBytes = 64 << 10

var errEmptyBody = errors.New("request body is empty")

// decodeJSON decodes a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// decodeAndValidate decodes the body, lets normalize clean it, then runs the
// validator. It writes the error response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, normalize func()) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, http.StatusRequestEntityTooLarge, CodeInvalidRequest, "Request body too large", nil)
			return false
		}
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "Invalid JSON body", nil)
		return false
	}
	if normalize != nil {
		normalize()
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		respondValidation(w, r, verr)
		return false
	}
	return true
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

// queryString reads a trimmed query parameter, returning def when absent.
func queryString(r *http.Request, key, def string) string {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		return v
	}
	return def
}

func subjectID(r *http.Request) string {
	if s, ok := auth.SubjectFromContext(r.Context()); ok {
		return s.ID
	}
	return ""
}

func projectIDParam(r *http.Request) string {
	return chi.URLParam(r, "projectID")
}

func domainIDParam(r *http.Request) string {
	return chi.URLParam(r, "domainID")
}
