package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/caseflowhq/caseflow/internal/observability/metrics"
	"github.com/caseflowhq/caseflow/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Orchestrator translates one local appointment mutation into N independent
// remote operations, one per connected user, and aggregates the outcomes.
// One user's failure never blocks the others.
type Orchestrator struct {
	connections ConnectionStore
	refs        ReferenceStore
	events      EventClient
	logger      *logging.Logger
	metrics     *metrics.SyncMetrics
	tracer      trace.Tracer

	callTimeout time.Duration
	maxRetries  int
	retryBase   time.Duration
}

// NewOrchestrator wires the fan-out against the given collaborators.
func NewOrchestrator(connections ConnectionStore, refs ReferenceStore, events EventClient, logger *logging.Logger) *Orchestrator {
	if connections == nil || refs == nil || events == nil {
		panic("calendar: orchestrator requires connections, refs and events")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		connections: connections,
		refs:        refs,
		events:      events,
		logger:      logger,
		tracer:      otel.Tracer("caseflow/calendar"),
		callTimeout: 5 * time.Second,
		maxRetries:  2,
		retryBase:   200 * time.Millisecond,
	}
}

// WithCallTimeout bounds each per-user unit of work.
func (o *Orchestrator) WithCallTimeout(d time.Duration) *Orchestrator {
	if d > 0 {
		o.callTimeout = d
	}
	return o
}

// WithRetry configures bounded retry for transient remote failures.
func (o *Orchestrator) WithRetry(maxRetries int, baseDelay time.Duration) *Orchestrator {
	if maxRetries >= 0 {
		o.maxRetries = maxRetries
	}
	if baseDelay > 0 {
		o.retryBase = baseDelay
	}
	return o
}

// WithMetrics attaches sync metrics.
func (o *Orchestrator) WithMetrics(m *metrics.SyncMetrics) *Orchestrator {
	o.metrics = m
	return o
}

// SyncAppointment fans one mutation out to every connected user, the
// initiator included. Per-user failures are recorded in the result, never
// returned as errors; only a rejected payload or an unreachable connection
// registry produces an error return.
func (o *Orchestrator) SyncAppointment(ctx context.Context, appt *Appointment, op Op, initiatorID string) (*SyncResult, error) {
	if err := appt.Validate(); err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "calendar.sync_appointment", trace.WithAttributes(
		attribute.String("calendar.op", string(op)),
		attribute.String("appointment.id", appt.ID),
	))
	defer span.End()
	start := time.Now()

	conns, err := o.connections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("calendar: list connections: %w", err)
	}

	// All-settle fan-out: one slot per user, each goroutine owns its own
	// error boundary and its own (appointmentId, userId) key in the
	// reference store.
	outcomes := make([]Outcome, len(conns))
	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func(i int, conn *Connection) {
			defer wg.Done()
			outcomes[i] = o.syncOne(ctx, conn, appt, op)
		}(i, conn)
	}
	wg.Wait()

	res := aggregate(outcomes)
	for _, out := range res.UserResults {
		o.metrics.ObserveUserSync(string(out.Op), out.Success)
	}
	o.metrics.ObserveFanout(string(op), res.Success, time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("calendar.total_users", res.TotalUsers),
		attribute.Int("calendar.successful_syncs", res.SuccessfulSyncs),
	)

	o.logger.Info("calendar sync fan-out complete",
		"appointment_id", appt.ID,
		"op", op,
		"initiator", initiatorID,
		"total_users", res.TotalUsers,
		"successful_syncs", res.SuccessfulSyncs,
		"errors", len(res.Errors),
	)
	return res, nil
}

// SyncAppointmentToUser runs the same per-user branching against a single
// target. Used to backfill a newly connected user's calendar with
// pre-existing appointments.
func (o *Orchestrator) SyncAppointmentToUser(ctx context.Context, appt *Appointment, userID, creatorUserID string) (*SyncResult, error) {
	if err := appt.Validate(); err != nil {
		return nil, err
	}

	conn, err := o.connections.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("calendar: resolve connection for %s: %w", userID, err)
	}

	outcome := o.syncOne(ctx, conn, appt, OpCreate)
	o.metrics.ObserveUserSync(string(outcome.Op), outcome.Success)
	o.logger.Debug("single-user sync complete",
		"appointment_id", appt.ID,
		"user_id", userID,
		"creator", creatorUserID,
		"success", outcome.Success,
	)
	return aggregate([]Outcome{outcome}), nil
}

// syncOne is the per-user unit of work. It owns its own timeout and never
// panics or returns an error; every failure becomes a recorded outcome.
func (o *Orchestrator) syncOne(ctx context.Context, conn *Connection, appt *Appointment, op Op) Outcome {
	ctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	out := Outcome{UserID: conn.UserID, Email: conn.Email, Op: op}

	ref, err := o.refs.Get(ctx, appt.ID, conn.UserID)
	if err != nil && !errors.Is(err, ErrReferenceNotFound) {
		out.Error = fmt.Sprintf("reference lookup failed: %v", err)
		return out
	}
	hasRef := err == nil && ref != nil

	ev := eventFromAppointment(appt)

	switch op {
	case OpCreate, OpUpdate:
		// create with an existing reference degrades to update (idempotent
		// re-create guard); update without one falls back to create
		// (self-healing for users who connected later).
		if hasRef {
			out.Op = OpUpdate
			err := o.withRetry(ctx, func(ctx context.Context) error {
				return o.events.UpdateEvent(ctx, conn, ref.EventID, ev)
			})
			switch {
			case err == nil:
				out.Success = true
				out.EventID = ref.EventID
				return out
			case errors.Is(err, ErrEventNotFound):
				// Remote event vanished; recreate below and overwrite the ref.
				hasRef = false
			default:
				out.Error = err.Error()
				return out
			}
		}
		if !hasRef {
			out.Op = OpCreate
			var eventID string
			err := o.withRetry(ctx, func(ctx context.Context) error {
				id, createErr := o.events.CreateEvent(ctx, conn, ev)
				if createErr != nil {
					return createErr
				}
				eventID = id
				return nil
			})
			if err != nil {
				out.Error = err.Error()
				return out
			}
			out.EventID = eventID
			if err := o.refs.Put(ctx, &EventReference{
				AppointmentID: appt.ID,
				UserID:        conn.UserID,
				EventID:       eventID,
			}); err != nil {
				// The remote event exists but the mapping was lost; report a
				// failure so the caller knows a re-sync may duplicate it.
				out.Error = fmt.Sprintf("event created but reference persist failed: %v", err)
				return out
			}
			out.Success = true
		}

	case OpDelete:
		if !hasRef {
			// Nothing was ever created for this user: a no-op success.
			out.Success = true
			return out
		}
		err := o.withRetry(ctx, func(ctx context.Context) error {
			return o.events.DeleteEvent(ctx, conn, ref.EventID)
		})
		if err != nil && !errors.Is(err, ErrEventNotFound) {
			out.Error = err.Error()
			return out
		}
		// Deleted remotely, or already gone: prune the reference either way.
		if err := o.refs.Delete(ctx, appt.ID, conn.UserID); err != nil {
			out.Error = fmt.Sprintf("event deleted but reference prune failed: %v", err)
			return out
		}
		out.Success = true

	default:
		out.Error = fmt.Sprintf("unsupported operation %q", op)
	}
	return out
}

// withRetry retries transient failures with exponential backoff. Auth and
// not-found failures return immediately; they have their own handling paths.
func (o *Orchestrator) withRetry(ctx context.Context, fn func(context.Context) error) error {
	delay := o.retryBase
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || !IsRetryable(err) || attempt >= o.maxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// aggregate folds per-user outcomes into the reportable result.
// Policy: the fan-out counts as successful when at least one user synced.
// A fan-out with no connected users has nothing to fail and reports success.
func aggregate(outcomes []Outcome) *SyncResult {
	res := &SyncResult{
		TotalUsers:  len(outcomes),
		UserResults: outcomes,
		Errors:      []string{},
	}
	for _, out := range outcomes {
		if out.Success {
			res.SuccessfulSyncs++
			continue
		}
		if out.Error != "" {
			target := out.Email
			if target == "" {
				target = out.UserID
			}
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", target, out.Error))
		}
	}
	res.Success = res.SuccessfulSyncs > 0 || res.TotalUsers == 0
	return res
}
