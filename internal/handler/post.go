package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bykirken/bykirken/internal/model"
	"github.com/bykirken/bykirken/internal/store"
)

type PostHandler struct {
	posts  *store.PostStore
	logger *slog.Logger
}

func NewPostHandler(posts *store.PostStore, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

type postRequest struct {
	Slug           string              `json:"slug"`
	Title          model.LocalizedText `json:"title"`
	Excerpt        model.LocalizedText `json:"excerpt"`
	BodyMD         model.LocalizedText `json:"body_md"`
	CoverImagePath *string             `json:"cover_image_path"`
	Status         string              `json:"status"`
}

func (h *PostHandler) parseAndValidate(w http.ResponseWriter, r *http.Request) (*model.Post, bool) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}

	req.Slug = strings.TrimSpace(req.Slug)
	if req.Slug == "" {
		writeError(w, http.StatusBadRequest, "slug is required")
		return nil, false
	}
	if req.Title.Resolve("no") == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return nil, false
	}
	if req.Status == "" {
		req.Status = "draft"
	}
	if req.Status != "draft" && req.Status != "published" {
		writeError(w, http.StatusBadRequest, "invalid status")
		return nil, false
	}

	p := &model.Post{
		Slug:           req.Slug,
		Title:          req.Title,
		Excerpt:        req.Excerpt,
		BodyMD:         req.BodyMD,
		CoverImagePath: req.CoverImagePath,
		Status:         req.Status,
	}
	if p.Status == "published" {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	return p, true
}

// ListPublished serves the public news listing, newest first.
func (h *PostHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20)

	posts, err := h.posts.ListPublished(time.Now().UTC(), limit, offset)
	if err != nil {
		h.logger.Error("list published posts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	p, err := h.posts.GetPublishedBySlug(slug, time.Now().UTC())
	if err != nil {
		h.logger.Error("get post by slug", "error", err, "slug", slug)
		writeError(w, http.StatusInternalServerError, "failed to get post")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100)

	posts, err := h.posts.List(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	existing, err := h.posts.GetBySlug(p.Slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check slug")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "slug already in use")
		return
	}

	created, err := h.posts.Create(p)
	if err != nil {
		h.logger.Error("create post", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.posts.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get post")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	p, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}
	p.ID = id
	if p.Status == "published" && existing.PublishedAt != nil {
		p.PublishedAt = existing.PublishedAt
	}

	updated, err := h.posts.Update(p)
	if err != nil {
		h.logger.Error("update post", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update post")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.posts.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get post")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	if err := h.posts.Delete(id); err != nil {
		h.logger.Error("delete post", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
