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

type PageHandler struct {
	pages  *store.PageStore
	logger *slog.Logger
}

func NewPageHandler(pages *store.PageStore, logger *slog.Logger) *PageHandler {
	return &PageHandler{pages: pages, logger: logger}
}

type pageRequest struct {
	Slug   string              `json:"slug"`
	Title  model.LocalizedText `json:"title"`
	BodyMD model.LocalizedText `json:"body_md"`
	Meta   map[string]any      `json:"meta"`
	Status string              `json:"status"`
}

func (h *PageHandler) parseAndValidate(w http.ResponseWriter, r *http.Request) (*model.Page, bool) {
	var req pageRequest
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

	p := &model.Page{
		Slug:   req.Slug,
		Title:  req.Title,
		BodyMD: req.BodyMD,
		Meta:   req.Meta,
		Status: req.Status,
	}
	if p.Status == "published" {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	return p, true
}

// ListPublished serves the public page index.
func (h *PageHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.ListPublished()
	if err != nil {
		h.logger.Error("list published pages", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list pages")
		return
	}
	if pages == nil {
		pages = []model.Page{}
	}
	writeJSON(w, http.StatusOK, pages)
}

func (h *PageHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	p, err := h.pages.GetPublishedBySlug(slug)
	if err != nil {
		h.logger.Error("get page by slug", "error", err, "slug", slug)
		writeError(w, http.StatusInternalServerError, "failed to get page")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pages")
		return
	}
	if pages == nil {
		pages = []model.Page{}
	}
	writeJSON(w, http.StatusOK, pages)
}

func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	existing, err := h.pages.GetBySlug(p.Slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check slug")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "slug already in use")
		return
	}

	created, err := h.pages.Create(p)
	if err != nil {
		h.logger.Error("create page", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create page")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.pages.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get page")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "page not found")
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

	updated, err := h.pages.Update(p)
	if err != nil {
		h.logger.Error("update page", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update page")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.pages.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get page")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}

	if err := h.pages.Delete(id); err != nil {
		h.logger.Error("delete page", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
