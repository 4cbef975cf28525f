package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bykirken/bykirken/internal/push"
	"github.com/bykirken/bykirken/internal/store"
)

type PushHandler struct {
	subs    *store.PushStore
	service *push.Service
	logger  *slog.Logger
}

func NewPushHandler(subs *store.PushStore, service *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: subs, service: service, logger: logger}
}

// VAPIDKey serves the public key browsers need to subscribe.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		writeError(w, http.StatusServiceUnavailable, "push not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe stores a browser push subscription, updating keys when the
// endpoint is already registered.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub, err := h.subs.Subscribe(req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		h.logger.Error("store push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.subs.Unsubscribe(req.Endpoint); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
