// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

// AddComment handles POST /api/v1/forensics/violations/{id}/comments
//
// @Summary Append a comment
// @Description Appends a comment authored by the caller. Blank content is rejected.
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Violation ID"
// @Param body body models.CommentRequest true "Comment"
// @Success 201 {object} models.APIResponse{data=models.Comment}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /forensics/violations/{id}/comments [post]
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	var req models.CommentRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	c, err := h.engine.AddComment(r.Context(), caller(r), id, req.Content)
	if err != nil {
		h.engineError(w, r, forensics.PermViolationWrite, err)
		return
	}
	h.logReview(r, audit.EventTypeCommented, id, c.ID, "Comment added")
	respondSuccess(w, r, http.StatusCreated, c, start)
}

// AcknowledgeComment handles POST /api/v1/forensics/violations/{id}/comments/{commentId}/acknowledge
//
// A repeated acknowledgment answers 409 with the stored comment in data so
// clients can treat it as success.
//
// @Summary Acknowledge a comment
// @Tags Comments
// @Produce json
// @Param id path string true "Violation ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} models.APIResponse{data=models.Comment}
// @Failure 409 {object} models.APIResponse{data=models.Comment} "Already acknowledged"
// @Router /forensics/violations/{id}/comments/{commentId}/acknowledge [post]
func (h *Handler) AcknowledgeComment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	commentID := chi.URLParam(r, "commentId")

	c, err := h.engine.AcknowledgeComment(r.Context(), caller(r), id, commentID)
	if errors.Is(err, forensics.ErrAlreadyAcknowledged) {
		respondJSON(w, r, http.StatusConflict, &models.APIResponse{
			Status: "error",
			Data:   c,
			Error: &models.APIError{
				Code:    "CONFLICT",
				Message: err.Error(),
				Details: map[string]interface{}{"reason": models.ConflictAlreadyAcknowledged},
			},
		})
		return
	}
	if err != nil {
		h.engineError(w, r, forensics.PermViolationWrite, err)
		return
	}
	h.logReview(r, audit.EventTypeAcknowledged, id, commentID, "Comment acknowledged")
	respondSuccess(w, r, http.StatusOK, c, start)
}
