package clients

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for clients.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new clients handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /clients requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if isValidationErr(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create client", "error", err)
		http.Error(w, "failed to create client", http.StatusInternalServerError)
		return
	}

	h.logger.Info("client created", "id", c.ID, "name", c.Name)
	writeJSON(w, http.StatusCreated, c)
}

// Get handles GET /clients/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch client", "error", err, "id", id)
		http.Error(w, "failed to fetch client", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListClientsResponse is the response for listing clients.
type ListClientsResponse struct {
	Clients []*Client `json:"clients"`
	Count   int       `json:"count"`
}

// List handles GET /clients requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cs, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list clients", "error", err)
		http.Error(w, "failed to list clients", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListClientsResponse{Clients: cs, Count: len(cs)})
}

// Update handles PUT /clients/{id} requests.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.repo.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "client not found", http.StatusNotFound)
		case isValidationErr(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update client", "error", err, "id", id)
			http.Error(w, "failed to update client", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /clients/{id} requests.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete client", "error", err, "id", id)
		http.Error(w, "failed to delete client", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isValidationErr(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrMissingContact) ||
		errors.Is(err, ErrInvalidStatus)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
