package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/caseflowhq/caseflow/pkg/logging"
)

// Handler exposes the sync endpoints.
type Handler struct {
	orch       *Orchestrator
	backfiller *Backfiller
	logger     *logging.Logger
}

// NewHandler creates a sync handler.
func NewHandler(orch *Orchestrator, backfiller *Backfiller, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{orch: orch, backfiller: backfiller, logger: logger}
}

type appointmentPayload struct {
	ID            string `json:"id"`
	ClientName    string `json:"clientName"`
	Notes         string `json:"notes"`
	Location      string `json:"location"`
	DateOfSession string `json:"dateOfSession"`
	Duration      int    `json:"duration"` // minutes
	Status        string `json:"status"`
}

type syncAppointmentRequest struct {
	Appointment   appointmentPayload `json:"appointment"`
	Operation     string             `json:"operation"`
	CreatorUserID string             `json:"creatorUserId"`
}

// SyncAppointment handles POST /calendar/sync-appointment.
func (h *Handler) SyncAppointment(w http.ResponseWriter, r *http.Request) {
	var req syncAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode sync request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	op, err := ParseOp(req.Operation)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Appointment.DateOfSession)
	if err != nil {
		http.Error(w, "invalid dateOfSession: expected RFC 3339", http.StatusBadRequest)
		return
	}

	appt := &Appointment{
		ID:         req.Appointment.ID,
		ClientName: req.Appointment.ClientName,
		Notes:      req.Appointment.Notes,
		Location:   req.Appointment.Location,
		Start:      start,
		Duration:   time.Duration(req.Appointment.Duration) * time.Minute,
		Status:     req.Appointment.Status,
	}

	res, err := h.orch.SyncAppointment(r.Context(), appt, op, req.CreatorUserID)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			http.Error(w, ve.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("sync fan-out failed", "error", err, "appointment_id", appt.ID)
		http.Error(w, "sync failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type syncExistingRequest struct {
	UserID string `json:"userId"`
}

// SyncExisting handles POST /calendar/sync-existing: a synchronous backfill
// of every appointment into one user's calendar.
func (h *Handler) SyncExisting(w http.ResponseWriter, r *http.Request) {
	var req syncExistingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	res, err := h.backfiller.SyncAllAppointments(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, ErrNotConnected) {
			http.Error(w, "user has no calendar connection", http.StatusConflict)
			return
		}
		h.logger.Error("backfill failed", "error", err, "user_id", req.UserID)
		http.Error(w, "backfill failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
