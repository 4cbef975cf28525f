package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/bykirken/bykirken/internal/calsync"
	"github.com/bykirken/bykirken/internal/websocket"
)

// schedulerHeader marks requests originating from the hosting platform's cron
// scheduler. The reverse proxy strips it from external traffic.
const schedulerHeader = "X-Scheduler-Cron"

// SyncRunner runs one calendar reconciliation pass.
type SyncRunner interface {
	Run(ctx context.Context) (calsync.Summary, error)
}

type SyncHandler struct {
	runner     SyncRunner
	hub        *websocket.Hub
	cronSecret string
	production bool
	logger     *slog.Logger
}

func NewSyncHandler(runner SyncRunner, hub *websocket.Hub, cronSecret string, production bool, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		runner:     runner,
		hub:        hub,
		cronSecret: cronSecret,
		production: production,
		logger:     logger,
	}
}

// Trigger handles GET requests that kick off a sync run. Callers authenticate
// with the shared cron secret in the X-Cron-Secret header or the secret query
// parameter; requests carrying the scheduler marker header are always trusted.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	summary, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.Error("calendar sync failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("calendar", "synced", "", map[string]any{
			"synced":    summary.Synced,
			"cancelled": summary.Cancelled,
		}))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"synced":    summary.Synced,
		"cancelled": summary.Cancelled,
	})
}

// authorize writes the error response itself when the request is rejected.
func (h *SyncHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get(schedulerHeader) != "" {
		return true
	}

	if h.cronSecret == "" {
		// Fail closed in production; development accepts unauthenticated
		// triggers for convenience.
		if h.production {
			writeError(w, http.StatusInternalServerError, "cron secret not configured")
			return false
		}
		return true
	}

	provided := r.Header.Get("X-Cron-Secret")
	if provided == "" {
		provided = r.URL.Query().Get("secret")
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.cronSecret)) != 1 {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	return true
}
