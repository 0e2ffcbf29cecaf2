package reports

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/caseflowhq/caseflow/pkg/logging"
)

// Handler serves the dashboard endpoint.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a dashboard HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// GetDashboard returns aggregated activity counts.
// GET /reports/dashboard?start=RFC3339&end=RFC3339 (both or neither)
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	var start, end *time.Time
	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			http.Error(w, `{"error": "invalid start time, use RFC3339 format"}`, http.StatusBadRequest)
			return
		}
		start = &t
	}
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			http.Error(w, `{"error": "invalid end time, use RFC3339 format"}`, http.StatusBadRequest)
			return
		}
		end = &t
	}
	if (start == nil) != (end == nil) {
		http.Error(w, `{"error": "both start and end must be provided, or neither"}`, http.StatusBadRequest)
		return
	}

	dashboard, err := h.repo.GetDashboard(r.Context(), start, end)
	if err != nil {
		h.logger.Error("failed to build dashboard", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dashboard); err != nil {
		h.logger.Error("failed to encode dashboard", "error", err)
	}
}
