package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bykirken/bykirken/internal/model"
	"github.com/bykirken/bykirken/internal/store"
)

type CategoryHandler struct {
	categories *store.CategoryStore
	logger     *slog.Logger
}

func NewCategoryHandler(categories *store.CategoryStore, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

type categoryRequest struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parent_id"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List()
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Name == "" || req.Slug == "" {
		writeError(w, http.StatusBadRequest, "name and slug are required")
		return
	}

	if req.ParentID != nil {
		parent, err := h.categories.GetByID(*req.ParentID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check parent")
			return
		}
		if parent == nil {
			writeError(w, http.StatusBadRequest, "parent category not found")
			return
		}
	}

	existing, err := h.categories.GetBySlug(req.Slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check slug")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "slug already in use")
		return
	}

	created, err := h.categories.Create(req.Name, req.Slug, req.ParentID)
	if err != nil {
		h.logger.Error("create category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.categories.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get category")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	if err := h.categories.Delete(id); err != nil {
		h.logger.Error("delete category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
