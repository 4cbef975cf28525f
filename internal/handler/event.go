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

const defaultUpcomingLimit = 50

type EventHandler struct {
	events *store.EventStore
	logger *slog.Logger
}

func NewEventHandler(events *store.EventStore, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

type eventRequest struct {
	Slug           string              `json:"slug"`
	Title          model.LocalizedText `json:"title"`
	DescriptionMD  model.LocalizedText `json:"description_md"`
	StartTime      string              `json:"start_time"`
	EndTime        *string             `json:"end_time"`
	Location       *string             `json:"location"`
	CoverImagePath *string             `json:"cover_image_path"`
	Status         string              `json:"status"`
}

func validEventStatus(s string) bool {
	switch s {
	case model.EventStatusDraft, model.EventStatusPublished,
		model.EventStatusCancelled, model.EventStatusArchived:
		return true
	}
	return false
}

func (h *EventHandler) parseAndValidate(w http.ResponseWriter, r *http.Request) (*model.Event, bool) {
	var req eventRequest
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
		req.Status = model.EventStatusDraft
	}
	if !validEventStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return nil, false
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time must be RFC3339 format")
		return nil, false
	}

	var endTime *time.Time
	if req.EndTime != nil && *req.EndTime != "" {
		t, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_time must be RFC3339 format")
			return nil, false
		}
		if t.Before(startTime) {
			writeError(w, http.StatusBadRequest, "end_time must not precede start_time")
			return nil, false
		}
		endTime = &t
	}

	ev := &model.Event{
		Slug:           req.Slug,
		Title:          req.Title,
		DescriptionMD:  req.DescriptionMD,
		StartTime:      startTime,
		EndTime:        endTime,
		Location:       req.Location,
		CoverImagePath: req.CoverImagePath,
		Status:         req.Status,
	}
	if ev.Status == model.EventStatusPublished {
		now := time.Now().UTC()
		ev.PublishedAt = &now
	}
	return ev, true
}

// ListUpcoming serves the public event listing.
func (h *EventHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	limit, _ := parseLimitOffset(r, defaultUpcomingLimit)

	events, err := h.events.ListUpcoming(time.Now().UTC(), limit)
	if err != nil {
		h.logger.Error("list upcoming events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ListRange serves events overlapping a caller-supplied window, used by the
// public calendar view.
func (h *EventHandler) ListRange(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	start, err := parseFlexibleTime(startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be RFC3339 or YYYY-MM-DD format")
		return
	}
	end, err := parseFlexibleTime(endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be RFC3339 or YYYY-MM-DD format")
		return
	}

	events, err := h.events.ListBetween(start, end)
	if err != nil {
		h.logger.Error("list events by range", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetBySlug serves the public event detail.
func (h *EventHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	ev, err := h.events.GetPublishedBySlug(slug, time.Now().UTC())
	if err != nil {
		h.logger.Error("get event by slug", "error", err, "slug", slug)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if ev == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Admin operations below.

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100)

	events, err := h.events.List(limit, offset)
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ev, err := h.events.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if ev == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	existing, err := h.events.GetBySlug(ev.Slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check slug")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "slug already in use")
		return
	}

	created, err := h.events.Create(ev)
	if err != nil {
		h.logger.Error("create event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.events.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	ev, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}
	ev.ID = id
	// Keep the original publish timestamp when the event was already
	// published.
	if ev.Status == model.EventStatusPublished && existing.PublishedAt != nil {
		ev.PublishedAt = existing.PublishedAt
	}

	updated, err := h.events.Update(ev)
	if err != nil {
		h.logger.Error("update event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.events.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	if err := h.events.Delete(id); err != nil {
		h.logger.Error("delete event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
