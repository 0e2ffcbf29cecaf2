package calendar

import (
	"context"
	"fmt"

	"github.com/caseflowhq/caseflow/pkg/logging"
)

// AppointmentSource lists every appointment eligible for a backfill run.
type AppointmentSource interface {
	ListAll(ctx context.Context) ([]Appointment, error)
}

// Backfiller pushes every existing appointment into one user's calendar,
// typically right after they connect their Google account.
type Backfiller struct {
	source      AppointmentSource
	orch        *Orchestrator
	connections ConnectionStore
	logger      *logging.Logger
}

// NewBackfiller wires a backfill runner.
func NewBackfiller(source AppointmentSource, orch *Orchestrator, connections ConnectionStore, logger *logging.Logger) *Backfiller {
	if source == nil || orch == nil {
		panic("calendar: backfiller requires source and orchestrator")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Backfiller{source: source, orch: orch, connections: connections, logger: logger}
}

// SyncAllAppointments iterates every existing appointment and syncs each into
// the user's calendar. Sequential on purpose: one user's backfill should not
// hit the Calendar API with a burst of parallel writes. Independent failures
// never stop the iteration.
func (b *Backfiller) SyncAllAppointments(ctx context.Context, userID string) (*BackfillResult, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Reason: "required"}
	}

	// Resolve the connection once up front. Without this every appointment
	// would fail with the same not-connected error, and the caller could not
	// tell a disconnected user apart from N individual sync failures.
	if b.connections != nil {
		if _, err := b.connections.Get(ctx, userID); err != nil {
			return nil, fmt.Errorf("calendar: resolve connection for backfill of %s: %w", userID, err)
		}
	}

	appts, err := b.source.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("calendar: list appointments for backfill: %w", err)
	}

	res := &BackfillResult{TotalItems: len(appts), Errors: []string{}}
	for i := range appts {
		one, err := b.orch.SyncAppointmentToUser(ctx, &appts[i], userID, userID)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", appts[i].ID, err))
			continue
		}
		if one.SuccessfulSyncs > 0 {
			res.SuccessfulSyncs++
		} else {
			res.Errors = append(res.Errors, one.Errors...)
		}
	}
	res.Success = len(res.Errors) == 0

	if b.connections != nil {
		if err := b.connections.TouchLastSync(ctx, userID); err != nil {
			b.logger.Warn("failed to stamp lastSyncAt after backfill", "user_id", userID, "error", err)
		}
	}

	b.logger.Info("backfill complete",
		"user_id", userID,
		"total_items", res.TotalItems,
		"successful_syncs", res.SuccessfulSyncs,
		"errors", len(res.Errors),
	)
	return res, nil
}
