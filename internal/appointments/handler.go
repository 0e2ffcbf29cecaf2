package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /appointments requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "failed to create appointment")
		return
	}

	h.logger.Info("appointment created",
		"id", res.Appointment.ID,
		"client", res.Appointment.ClientName,
		"synced_users", res.Sync.SuccessfulSyncs,
	)
	writeJSON(w, http.StatusCreated, res)
}

// Get handles GET /appointments/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	appt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "failed to fetch appointment")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// ListAppointmentsResponse is the response for listing appointments.
type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
}

// List handles GET /appointments requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListAppointmentsResponse{Appointments: appts, Count: len(appts)})
}

// Update handles PUT /appointments/{id} requests.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Update(r.Context(), id, actorID(r), &req)
	if err != nil {
		h.writeError(w, err, "failed to update appointment")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

// ChangeStatus handles POST /appointments/{id}/status requests.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.ChangeStatus(r.Context(), id, actorID(r), req.Status)
	if err != nil {
		h.writeError(w, err, "failed to change status")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Delete handles DELETE /appointments/{id} requests.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := h.svc.Delete(r.Context(), id, actorID(r))
	if err != nil {
		h.writeError(w, err, "failed to delete appointment")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case IsValidationErr(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error(fallback, "error", err)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

// actorID resolves the mutating user from the X-User-ID header set by the
// auth middleware.
func actorID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
