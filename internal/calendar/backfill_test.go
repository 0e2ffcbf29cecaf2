package calendar

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/caseflowhq/caseflow/pkg/logging"
)

type staticSource struct {
	appts []Appointment
	err   error
}

func (s *staticSource) ListAll(context.Context) ([]Appointment, error) {
	return s.appts, s.err
}

func threeAppointments() []Appointment {
	var out []Appointment
	for i := 1; i <= 3; i++ {
		out = append(out, Appointment{
			ID:         fmt.Sprintf("A%d", i),
			ClientName: fmt.Sprintf("Client %d", i),
			Start:      time.Date(2024, 2, i, 10, 0, 0, 0, time.UTC),
			Duration:   45 * time.Minute,
		})
	}
	return out
}

func TestSyncAllAppointments_BackfillsEverything(t *testing.T) {
	conns := newFakeConnections("U1")
	refs := newFakeRefs()
	events := &fakeEvents{}
	orch := newTestOrchestrator(conns, refs, events)
	b := NewBackfiller(&staticSource{appts: threeAppointments()}, orch, conns, logging.Default())

	res, err := b.SyncAllAppointments(context.Background(), "U1")
	if err != nil {
		t.Fatalf("backfill failed: %v", err)
	}

	if !res.Success {
		t.Errorf("expected success, got %+v", res)
	}
	if res.TotalItems != 3 || res.SuccessfulSyncs != 3 {
		t.Errorf("expected 3/3, got %d/%d", res.SuccessfulSyncs, res.TotalItems)
	}
	if refs.count() != 3 {
		t.Errorf("expected 3 references after backfill, got %d", refs.count())
	}

	conn, err := conns.Get(context.Background(), "U1")
	if err != nil {
		t.Fatal(err)
	}
	if conn.LastSyncAt == "" {
		t.Error("expected lastSyncAt to be stamped after backfill")
	}
}

func TestSyncAllAppointments_ContinuesPastFailures(t *testing.T) {
	conns := newFakeConnections("U1")
	events := &fakeEvents{createErrs: []error{
		nil,
		fmt.Errorf("%w: revoked mid-backfill", ErrAuth),
		nil,
	}}
	orch := newTestOrchestrator(conns, newFakeRefs(), events)
	b := NewBackfiller(&staticSource{appts: threeAppointments()}, orch, conns, logging.Default())

	res, err := b.SyncAllAppointments(context.Background(), "U1")
	if err != nil {
		t.Fatalf("backfill returned error instead of aggregating: %v", err)
	}

	if res.SuccessfulSyncs != 2 {
		t.Errorf("expected 2 successes, got %d", res.SuccessfulSyncs)
	}
	if len(res.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", res.Errors)
	}
	if res.Success {
		t.Error("backfill success requires zero errors")
	}
	if events.createCalls != 3 {
		t.Errorf("expected all 3 items attempted, got %d", events.createCalls)
	}
}

func TestSyncAllAppointments_AlreadySyncedIsIdempotent(t *testing.T) {
	conns := newFakeConnections("U1")
	refs := newFakeRefs()
	events := &fakeEvents{}
	orch := newTestOrchestrator(conns, refs, events)
	b := NewBackfiller(&staticSource{appts: threeAppointments()}, orch, conns, logging.Default())

	if _, err := b.SyncAllAppointments(context.Background(), "U1"); err != nil {
		t.Fatal(err)
	}
	res, err := b.SyncAllAppointments(context.Background(), "U1")
	if err != nil {
		t.Fatal(err)
	}

	if !res.Success || res.SuccessfulSyncs != 3 {
		t.Errorf("expected second run to succeed via updates, got %+v", res)
	}
	if events.createCalls != 3 {
		t.Errorf("expected no duplicate creates, got %d", events.createCalls)
	}
	if events.updateCalls != 3 {
		t.Errorf("expected second run to update, got %d", events.updateCalls)
	}
	if refs.count() != 3 {
		t.Errorf("expected reference count unchanged, got %d", refs.count())
	}
}

func TestSyncAllAppointments_NotConnectedFailsFast(t *testing.T) {
	conns := newFakeConnections("U1")
	events := &fakeEvents{}
	orch := newTestOrchestrator(conns, newFakeRefs(), events)
	b := NewBackfiller(&staticSource{appts: threeAppointments()}, orch, conns, logging.Default())

	// A user without a connection is one error, not one error per appointment.
	_, err := b.SyncAllAppointments(context.Background(), "U9")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if events.createCalls != 0 {
		t.Errorf("expected no calendar calls for a disconnected user, got %d", events.createCalls)
	}
}

func TestSyncAllAppointments_SourceFailure(t *testing.T) {
	conns := newFakeConnections("U1")
	orch := newTestOrchestrator(conns, newFakeRefs(), &fakeEvents{})
	b := NewBackfiller(&staticSource{err: errors.New("table offline")}, orch, conns, logging.Default())

	if _, err := b.SyncAllAppointments(context.Background(), "U1"); err == nil {
		t.Fatal("expected error when the appointment source is unavailable")
	}
}

func TestSyncAllAppointments_RequiresUserID(t *testing.T) {
	conns := newFakeConnections("U1")
	orch := newTestOrchestrator(conns, newFakeRefs(), &fakeEvents{})
	b := NewBackfiller(&staticSource{}, orch, conns, logging.Default())

	_, err := b.SyncAllAppointments(context.Background(), "")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
