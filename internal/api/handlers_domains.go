// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/beacon/internal/models"
)

// ListDomains godoc
// @Summary List allowed domains
// @Tags Domains
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} models.APIResponse{data=[]models.DomainResponse}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID}/domains [get]
func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	project, ok := h.ownedProject(w, r)
	if !ok {
		return
	}
	domains, err := h.store.ListProjectDomains(r.Context(), project.ID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	out := make([]models.DomainResponse, len(domains))
	for i, d := range domains {
		out[i] = models.NewDomainResponse(d)
	}
	respondSuccess(w, r, http.StatusOK, out, start)
}

// AddDomain godoc
// @Summary Allow a domain
// @Description Accepts a hostname, "*." plus a hostname, localhost or 127.0.0.1
// @Tags Domains
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param request body models.DomainRequest true "Domain value"
// @Success 201 {object} models.APIResponse{data=models.DomainResponse}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID}/domains [post]
func (h *Handler) AddDomain(w http.ResponseWriter, r *http.Request) {
	project, ok := h.ownedProject(w, r)
	if !ok {
		return
	}
	var req models.DomainRequest
	if !decodeAndValidate(w, r, &req, func() { req.Domain = strings.TrimSpace(req.Domain) }) {
		return
	}
	d, err := h.store.AddProjectDomain(r.Context(), project.ID, req.Domain)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, models.NewDomainResponse(*d), time.Time{})
}

// UpdateDomain godoc
// @Summary Change an allowed domain
// @Tags Domains
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param domainID path string true "Domain ID"
// @Param request body models.DomainRequest true "Domain value"
// @Success 200 {object} models.APIResponse{data=models.DomainResponse}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID}/domains/{domainID} [put]
func (h *Handler) UpdateDomain(w http.ResponseWriter, r *http.Request) {
	project, ok := h.ownedProject(w, r)
	if !ok {
		return
	}
	var req models.DomainRequest
	if !decodeAndValidate(w, r, &req, func() { req.Domain = strings.TrimSpace(req.Domain) }) {
		return
	}
	d, err := h.store.UpdateProjectDomain(r.Context(), project.ID, domainIDParam(r), req.Domain)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, models.NewDomainResponse(*d), time.Time{})
}

// DeleteDomain godoc
// @Summary Remove an allowed domain
// @Tags Domains
// @Param projectID path string true "Project ID"
// @Param domainID path string true "Domain ID"
// @Success 204
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID}/domains/{domainID} [delete]
func (h *Handler) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	project, ok := h.ownedProject(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteProjectDomain(r.Context(), project.ID, domainIDParam(r)); err != nil {
		respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
