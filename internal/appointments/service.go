package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/caseflowhq/caseflow/internal/calendar"
	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/google/uuid"
)

// Syncer fans an appointment mutation out to every connected calendar.
type Syncer interface {
	SyncAppointment(ctx context.Context, appt *calendar.Appointment, op calendar.Op, initiatorID string) (*calendar.SyncResult, error)
}

// Notifier sends appointment lifecycle emails. Implementations must not
// block the mutation path on delivery problems.
type Notifier interface {
	SendAppointmentConfirmation(ctx context.Context, appt *Appointment) error
}

// AuditRecorder appends one audit event per mutation.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entity, entityID string) error
}

// Service applies appointment mutations locally and then pushes each one
// through the calendar fan-out. The local write is the source of truth; a
// degraded fan-out is reported alongside the mutation, never rolled back.
type Service struct {
	repo   Repository
	syncer Syncer
	notify Notifier
	audit  AuditRecorder
	logger *logging.Logger
}

// NewService wires the appointment service. Notifier and AuditRecorder are
// optional.
func NewService(repo Repository, syncer Syncer, logger *logging.Logger) *Service {
	if repo == nil || syncer == nil {
		panic("appointments: service requires repository and syncer")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, syncer: syncer, logger: logger}
}

// WithNotifier attaches confirmation emails to appointment creation.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notify = n
	return s
}

// WithAudit attaches an audit trail to every mutation.
func (s *Service) WithAudit(a AuditRecorder) *Service {
	s.audit = a
	return s
}

// MutationResult pairs the stored appointment with the calendar fan-out
// outcome for the mutation.
type MutationResult struct {
	Appointment *Appointment         `json:"appointment,omitempty"`
	Sync        *calendar.SyncResult `json:"sync"`
}

// Create stores a new appointment and fans the creation out.
func (s *Service) Create(ctx context.Context, req *CreateAppointmentRequest) (*MutationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	status := req.Status
	if status == "" {
		status = StatusTentative
	}
	appt := &Appointment{
		ID:            uuid.NewString(),
		ClientID:      req.ClientID,
		ClientName:    req.ClientName,
		Notes:         req.Notes,
		Location:      req.Location,
		DateOfSession: req.DateOfSession,
		Duration:      req.Duration,
		Status:        status,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, appt); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, req.CreatedBy, "appointment.create", appt.ID)

	if s.notify != nil {
		if err := s.notify.SendAppointmentConfirmation(ctx, appt); err != nil {
			s.logger.Warn("confirmation email failed", "error", err, "appointment_id", appt.ID)
		}
	}

	res, err := s.fanOut(ctx, appt, calendar.OpCreate, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Appointment: appt, Sync: res}, nil
}

// Update applies a partial update and fans it out.
func (s *Service) Update(ctx context.Context, id, actorID string, req *UpdateAppointmentRequest) (*MutationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ClientName != nil {
		appt.ClientName = *req.ClientName
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}
	if req.Location != nil {
		appt.Location = *req.Location
	}
	if req.DateOfSession != nil {
		appt.DateOfSession = *req.DateOfSession
	}
	if req.Duration != nil {
		appt.Duration = *req.Duration
	}
	if req.Status != nil {
		appt.Status = *req.Status
	}
	appt.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.repo.Put(ctx, appt); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "appointment.update", appt.ID)

	res, err := s.fanOut(ctx, appt, calendar.OpUpdate, actorID)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Appointment: appt, Sync: res}, nil
}

// ChangeStatus moves an appointment through its lifecycle. A cancellation
// removes the calendar events; any other transition updates them.
func (s *Service) ChangeStatus(ctx context.Context, id, actorID, status string) (*MutationResult, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	appt.Status = status
	appt.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.repo.Put(ctx, appt); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "appointment.status."+status, appt.ID)

	op := calendar.OpUpdate
	if status == StatusCancelled {
		op = calendar.OpDelete
	}
	res, err := s.fanOut(ctx, appt, op, actorID)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Appointment: appt, Sync: res}, nil
}

// Delete removes an appointment and its calendar events.
func (s *Service) Delete(ctx context.Context, id, actorID string) (*MutationResult, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Fan the delete out before dropping the local record so the payload is
	// still available if the fan-out has to be retried.
	res, err := s.fanOut(ctx, appt, calendar.OpDelete, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "appointment.delete", id)
	return &MutationResult{Sync: res}, nil
}

// Get fetches one appointment.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.Get(ctx, id)
}

// List returns every appointment.
func (s *Service) List(ctx context.Context) ([]*Appointment, error) {
	return s.repo.List(ctx)
}

func (s *Service) fanOut(ctx context.Context, appt *Appointment, op calendar.Op, actorID string) (*calendar.SyncResult, error) {
	payload, err := appt.CalendarPayload()
	if err != nil {
		return nil, fmt.Errorf("appointments: build calendar payload: %w", err)
	}
	return s.syncer.SyncAppointment(ctx, payload, op, actorID)
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, actorID, action, "appointment", entityID); err != nil {
		s.logger.Warn("audit record failed", "error", err, "action", action, "entity_id", entityID)
	}
}
