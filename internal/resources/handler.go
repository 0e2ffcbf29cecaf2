package resources

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caseflowhq/caseflow/pkg/logging"
)

// Handler handles HTTP requests for shared resources.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a new resources handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

type prepareUploadRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
}

// PrepareUpload handles POST /resources requests.
func (h *Handler) PrepareUpload(w http.ResponseWriter, r *http.Request) {
	var req prepareUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ticket, err := h.store.PrepareUpload(r.Context(), req.Name, req.ContentType)
	if err != nil {
		if errors.Is(err, ErrMissingName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to presign upload", "error", err)
		http.Error(w, "failed to prepare upload", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(ticket)
}

// List handles GET /resources requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	resources, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list resources", "error", err)
		http.Error(w, "failed to list resources", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"resources": resources,
		"count":     len(resources),
	})
}

// Download handles GET /resources/download?key= requests, returning a
// short-lived URL rather than proxying the object body.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	url, err := h.store.DownloadURL(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "resource not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to presign download", "error", err, "key", key)
		http.Error(w, "failed to prepare download", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"download_url": url})
}

// Delete handles DELETE /resources?key= requests.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if err := h.store.Delete(r.Context(), key); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "resource not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete resource", "error", err, "key", key)
		http.Error(w, "failed to delete resource", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
