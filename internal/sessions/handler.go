package sessions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for session notes.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new sessions handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /sessions requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMissingClient) || errors.Is(err, ErrEmptyBody) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create note", "error", err)
		http.Error(w, "failed to create note", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(n)
}

// Get handles GET /sessions/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch note", "error", err, "id", id)
		http.Error(w, "failed to fetch note", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(n)
}

// ListByClient handles GET /sessions?clientId= requests.
func (h *Handler) ListByClient(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		http.Error(w, "missing clientId", http.StatusBadRequest)
		return
	}

	notes, err := h.repo.ListByClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("failed to list notes", "error", err, "client_id", clientID)
		http.Error(w, "failed to list notes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"notes": notes,
		"count": len(notes),
	})
}

// Delete handles DELETE /sessions/{id} requests.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete note", "error", err, "id", id)
		http.Error(w, "failed to delete note", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
