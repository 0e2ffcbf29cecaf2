// Package syncworker consumes queued backfill jobs and pushes every existing
// appointment into the newly connected user's calendar.
package syncworker

import (
	"context"
	"time"

	"github.com/caseflowhq/caseflow/internal/calendar"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

type jobQueue interface {
	Receive(ctx context.Context, max int32, wait time.Duration) ([]calendar.QueuedJob, error)
	Ack(ctx context.Context, receiptHandle string) error
}

type backfiller interface {
	SyncAllAppointments(ctx context.Context, userID string) (*calendar.BackfillResult, error)
}

// Worker polls the backfill queue and runs one backfill per job.
type Worker struct {
	queue      jobQueue
	backfiller backfiller
	logger     *logging.Logger
	wait       time.Duration
	batch      int32
}

// NewWorker creates a backfill worker.
func NewWorker(queue jobQueue, b backfiller, logger *logging.Logger) *Worker {
	if queue == nil || b == nil {
		panic("syncworker: queue and backfiller required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:      queue,
		backfiller: b,
		logger:     logger,
		wait:       10 * time.Second,
		batch:      5,
	}
}

// WithWaitTime sets the SQS long-poll duration.
func (w *Worker) WithWaitTime(d time.Duration) *Worker {
	if d > 0 {
		w.wait = d
	}
	return w
}

// WithBatchSize sets the max messages fetched per poll.
func (w *Worker) WithBatchSize(n int32) *Worker {
	if n > 0 {
		w.batch = n
	}
	return w
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		w.drain(ctx)
	}
}

func (w *Worker) drain(ctx context.Context) {
	jobs, err := w.queue.Receive(ctx, w.batch, w.wait)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("backfill receive failed", "error", err)
		time.Sleep(w.wait)
		return
	}

	for _, queued := range jobs {
		res, err := w.backfiller.SyncAllAppointments(ctx, queued.Job.UserID)
		if err != nil {
			// Leave the message in flight; SQS redelivers after the
			// visibility timeout.
			w.logger.Error("backfill failed", "error", err, "user_id", queued.Job.UserID)
			continue
		}

		w.logger.Info("backfill finished",
			"user_id", queued.Job.UserID,
			"total", res.TotalItems,
			"synced", res.SuccessfulSyncs,
			"errors", len(res.Errors),
		)
		if err := w.queue.Ack(ctx, queued.ReceiptHandle); err != nil {
			w.logger.Error("backfill ack failed", "error", err, "user_id", queued.Job.UserID)
		}
	}
}
