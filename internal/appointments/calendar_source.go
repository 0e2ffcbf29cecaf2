package appointments

import (
	"context"

	"github.com/caseflowhq/caseflow/internal/calendar"
)

// CalendarSource adapts the appointment repository to the backfill worker's
// view of the world. Cancelled appointments are excluded; they have no
// calendar event to create.
type CalendarSource struct {
	repo Repository
}

var _ calendar.AppointmentSource = (*CalendarSource)(nil)

// NewCalendarSource wraps a repository for backfill use.
func NewCalendarSource(repo Repository) *CalendarSource {
	if repo == nil {
		panic("appointments: calendar source requires repository")
	}
	return &CalendarSource{repo: repo}
}

// ListAll returns the calendar payload for every syncable appointment.
func (s *CalendarSource) ListAll(ctx context.Context) ([]calendar.Appointment, error) {
	appts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]calendar.Appointment, 0, len(appts))
	for _, appt := range appts {
		if appt.Status == StatusCancelled {
			continue
		}
		payload, err := appt.CalendarPayload()
		if err != nil {
			// A record with an unparseable date cannot be synced; skip it
			// rather than failing the whole backfill.
			continue
		}
		out = append(out, *payload)
	}
	return out, nil
}
