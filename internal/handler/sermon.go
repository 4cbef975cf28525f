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

type SermonHandler struct {
	sermons *store.SermonStore
	logger  *slog.Logger
}

func NewSermonHandler(sermons *store.SermonStore, logger *slog.Logger) *SermonHandler {
	return &SermonHandler{sermons: sermons, logger: logger}
}

type sermonRequest struct {
	Slug            string  `json:"slug"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Speaker         string  `json:"speaker"`
	Filename        string  `json:"filename"`
	FileSize        *int64  `json:"file_size"`
	DurationSeconds *int64  `json:"duration_seconds"`
	PublishedAt     *string `json:"published_at"`
}

func (h *SermonHandler) parseAndValidate(w http.ResponseWriter, r *http.Request) (*model.Sermon, bool) {
	var req sermonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}

	req.Slug = strings.TrimSpace(req.Slug)
	req.Title = strings.TrimSpace(req.Title)
	if req.Slug == "" {
		writeError(w, http.StatusBadRequest, "slug is required")
		return nil, false
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return nil, false
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return nil, false
	}

	m := &model.Sermon{
		Slug:            req.Slug,
		Title:           req.Title,
		Description:     req.Description,
		Speaker:         req.Speaker,
		Filename:        req.Filename,
		FileSize:        req.FileSize,
		DurationSeconds: req.DurationSeconds,
	}
	if req.PublishedAt != nil && *req.PublishedAt != "" {
		t, err := time.Parse(time.RFC3339, *req.PublishedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "published_at must be RFC3339 format")
			return nil, false
		}
		m.PublishedAt = &t
	}
	return m, true
}

// ListPublished serves the public sermon archive, newest first.
func (h *SermonHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20)

	sermons, err := h.sermons.ListPublished(limit, offset)
	if err != nil {
		h.logger.Error("list published sermons", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sermons")
		return
	}
	if sermons == nil {
		sermons = []model.Sermon{}
	}
	writeJSON(w, http.StatusOK, sermons)
}

func (h *SermonHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	m, err := h.sermons.GetBySlug(slug)
	if err != nil {
		h.logger.Error("get sermon by slug", "error", err, "slug", slug)
		writeError(w, http.StatusInternalServerError, "failed to get sermon")
		return
	}
	if m == nil || m.PublishedAt == nil {
		writeError(w, http.StatusNotFound, "sermon not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *SermonHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100)

	sermons, err := h.sermons.List(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sermons")
		return
	}
	if sermons == nil {
		sermons = []model.Sermon{}
	}
	writeJSON(w, http.StatusOK, sermons)
}

func (h *SermonHandler) Create(w http.ResponseWriter, r *http.Request) {
	m, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	existing, err := h.sermons.GetBySlug(m.Slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check slug")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "slug already in use")
		return
	}

	created, err := h.sermons.Create(m)
	if err != nil {
		h.logger.Error("create sermon", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create sermon")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *SermonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.sermons.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get sermon")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "sermon not found")
		return
	}

	m, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}
	m.ID = id

	updated, err := h.sermons.Update(m)
	if err != nil {
		h.logger.Error("update sermon", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update sermon")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *SermonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.sermons.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get sermon")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "sermon not found")
		return
	}

	if err := h.sermons.Delete(id); err != nil {
		h.logger.Error("delete sermon", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete sermon")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
