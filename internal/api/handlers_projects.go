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

// ListProjects godoc
// @Summary List projects
// @Description Projects owned by the authenticated user, newest first
// @Tags Projects
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Project}
// @Failure 401 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	projects, err := h.store.ListProjects(r.Context(), subjectID(r))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, projects, start)
}

// CreateProject godoc
// @Summary Create a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body models.ProjectRequest true "Project name"
// @Success 201 {object} models.APIResponse{data=models.Project}
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectRequest
	if !decodeAndValidate(w, r, &req, func() { req.Name = strings.TrimSpace(req.Name) }) {
		return
	}
	project, err := h.store.CreateProject(r.Context(), subjectID(r), req.Name)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, project, time.Time{})
}

// GetProject godoc
// @Summary Get a project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} models.APIResponse{data=models.Project}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := h.ownedProject(w, r)
	if !ok {
		return
	}
	respondSuccess(w, r, http.StatusOK, project, time.Time{})
}

// RenameProject godoc
// @Summary Rename a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param request body models.ProjectRequest true "New name"
// @Success 200 {object} models.APIResponse{data=models.Project}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID} [patch]
func (h *Handler) RenameProject(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectRequest
	if !decodeAndValidate(w, r, &req, func() { req.Name = strings.TrimSpace(req.Name) }) {
		return
	}
	project, err := h.store.RenameProject(r.Context(), subjectID(r), projectIDParam(r), req.Name)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, project, time.Time{})
}

// DeleteProject godoc
// @Summary Delete a project
// @Description Removes the project with its domains and events
// @Tags Projects
// @Param projectID path string true "Project ID"
// @Success 204
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/projects/{projectID} [delete]
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteProject(r.Context(), subjectID(r), projectIDParam(r)); err != nil {
		respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedProject loads {projectID} for the subject, answering 404 when it is
// missing or belongs to someone else.
func (h *Handler) ownedProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	project, err := h.store.GetProject(r.Context(), subjectID(r), projectIDParam(r))
	if err != nil {
		respondStoreError(w, r, err)
		return nil, false
	}
	return project, true
}
