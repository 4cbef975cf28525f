package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/bykirken/bykirken/internal/media"
)

// maxUploadSize caps media uploads at 50 MB; sermon audio is the largest
// expected object.
const maxUploadSize = 50 << 20

var allowedUploadFolders = map[string]bool{
	"covers":   true,
	"sermons":  true,
	"products": true,
	"pages":    true,
}

type MediaHandler struct {
	store  *media.Store
	logger *slog.Logger
}

func NewMediaHandler(store *media.Store, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{store: store, logger: logger}
}

// Upload stores a multipart file in object storage and returns its key and
// public URL.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.store.Configured() {
		writeError(w, http.StatusServiceUnavailable, "media storage not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	folder := strings.TrimSpace(r.FormValue("folder"))
	if !allowedUploadFolders[folder] {
		writeError(w, http.StatusBadRequest, "invalid folder")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key, err := h.store.Upload(r.Context(), folder, header.Filename, contentType, file)
	if err != nil {
		h.logger.Error("media upload", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"path": key,
		"url":  h.store.PublicURL(key),
	})
}

// Delete removes an object by key.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.store.Configured() {
		writeError(w, http.StatusServiceUnavailable, "media storage not configured")
		return
	}

	key := r.URL.Query().Get("path")
	if key == "" || strings.Contains(key, "..") {
		writeError(w, http.StatusBadRequest, "valid path is required")
		return
	}

	if err := h.store.Delete(r.Context(), key); err != nil {
		h.logger.Error("media delete", "error", err, "path", key)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
