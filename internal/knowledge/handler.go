package knowledge

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for knowledge articles.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a new knowledge handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Save handles POST /knowledge requests (create or replace by id).
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var a Article
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := h.store.Save(r.Context(), &a)
	if err != nil {
		if errors.Is(err, ErrMissingTitle) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to save article", "error", err)
		http.Error(w, "failed to save article", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(saved)
}

// Get handles GET /knowledge/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "article not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch article", "error", err, "id", id)
		http.Error(w, "failed to fetch article", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a)
}

// List handles GET /knowledge requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list articles", "error", err)
		http.Error(w, "failed to list articles", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"articles": articles,
		"count":    len(articles),
	})
}

// Delete handles DELETE /knowledge/{id} requests.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete article", "error", err, "id", id)
		http.Error(w, "failed to delete article", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
