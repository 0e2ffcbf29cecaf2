package messaging

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caseflowhq/caseflow/pkg/logging"
)

// Handler handles HTTP requests for thread messages.
type Handler struct {
	store  Store
	hub    *Hub
	logger *logging.Logger
}

// NewHandler creates a new messaging handler. The hub may be nil when no live
// feed is wired.
func NewHandler(store Store, hub *Hub, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, hub: hub, logger: logger}
}

// Post handles POST /messages requests and pushes the stored message to
// websocket subscribers.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.store.Post(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMissingThread) || errors.Is(err, ErrEmptyBody) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to post message", "error", err)
		http.Error(w, "failed to post message", http.StatusInternalServerError)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(msg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(msg)
}

// ListThread handles GET /messages?threadId= requests.
func (h *Handler) ListThread(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("threadId")

	msgs, err := h.store.ListThread(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, ErrMissingThread) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to list thread", "error", err, "thread_id", threadID)
		http.Error(w, "failed to list thread", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"messages": msgs,
		"count":    len(msgs),
	})
}
