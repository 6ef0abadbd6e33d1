// Package httpx provides HTTP handlers and utilities for the draftline
// scheduling API.
package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/draftline/draftline-go/internal/domain/model"
	"github.com/draftline/draftline-go/internal/service"
)

// PostHandlers provides HTTP handlers for post scheduling operations.
type PostHandlers struct {
	Svc *service.PostService
}

// CreatePost handles HTTP requests to schedule a new post.
func (h *PostHandlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePostRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.Svc.Schedule(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, post)
}

// GetPost handles HTTP requests to fetch a single post.
func (h *PostHandlers) GetPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("post id is required")})
		return
	}

	post, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, post)
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListPosts handles HTTP requests to list an owner's posts.
func (h *PostHandlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	limit := parseIntQuery(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := parseIntQuery(r, "offset", 0)

	posts, err := h.Svc.List(r.Context(), ownerID, limit, offset)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if posts == nil {
		posts = []*model.Post{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// UpdatePost handles HTTP requests to edit a still-scheduled post.
func (h *PostHandlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req model.UpdatePostRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.Svc.Edit(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, post)
}

// DeletePost handles HTTP requests to withdraw a post.
func (h *PostHandlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reschedulePostRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// ReschedulePost handles HTTP requests to revive a failed post.
func (h *PostHandlers) ReschedulePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req reschedulePostRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.Svc.RescheduleFailed(r.Context(), id, req.ScheduledAt)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, post)
}
