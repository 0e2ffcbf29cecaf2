package docexport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caseflowhq/caseflow/internal/calendar"
	"github.com/caseflowhq/caseflow/internal/sessions"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

// Handler handles HTTP requests for document exports.
type Handler struct {
	exporter *Exporter
	logger   *logging.Logger
}

// NewHandler creates a new export handler.
func NewHandler(exporter *Exporter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{exporter: exporter, logger: logger}
}

type exportRequest struct {
	NoteID string `json:"note_id"`
	UserID string `json:"user_id"`
}

// ExportSessionDoc handles POST /exports/session-doc requests.
func (h *Handler) ExportSessionDoc(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.NoteID == "" || req.UserID == "" {
		http.Error(w, "note_id and user_id are required", http.StatusBadRequest)
		return
	}

	res, err := h.exporter.ExportNote(r.Context(), req.NoteID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, calendar.ErrNotConnected):
			http.Error(w, "user has no calendar connection", http.StatusConflict)
		case errors.Is(err, sessions.ErrNotFound):
			http.Error(w, "note not found", http.StatusNotFound)
		case errors.Is(err, ErrNothingToExport):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("export failed", "error", err, "note_id", req.NoteID)
			http.Error(w, "export failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(res)
}
