package calendar

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

func TestClassifyGoogleErr(t *testing.T) {
	cases := []struct {
		name      string
		in        error
		sentinel  error
		retryable bool
	}{
		{"nil", nil, nil, false},
		{"unauthorized", &googleapi.Error{Code: 401, Message: "invalid credentials"}, ErrAuth, false},
		{"forbidden", &googleapi.Error{Code: 403, Message: "insufficient scopes"}, ErrAuth, false},
		{
			"rate limited 403 stays transient",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}},
			nil,
			true,
		},
		{
			"user rate limited",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}},
			nil,
			true,
		},
		{"not found", &googleapi.Error{Code: 404}, ErrEventNotFound, false},
		{"gone", &googleapi.Error{Code: 410}, ErrEventNotFound, false},
		{"server error stays transient", &googleapi.Error{Code: 503}, nil, true},
		{"plain network error stays transient", errors.New("connection reset"), nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyGoogleErr(tc.in)
			if tc.in == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if tc.sentinel != nil && !errors.Is(got, tc.sentinel) {
				t.Errorf("expected %v sentinel, got %v", tc.sentinel, got)
			}
			if IsRetryable(got) != tc.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", got, IsRetryable(got), tc.retryable)
			}
		})
	}
}

func TestEventFromAppointment(t *testing.T) {
	start := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	appt := &Appointment{
		ID:         "A1",
		ClientName: "Jane Doe",
		Notes:      "Follow-up on treatment plan",
		Location:   "Room 2",
		Start:      start,
		Duration:   90 * time.Minute,
		Status:     "confirmed",
	}

	ev := eventFromAppointment(appt)
	if ev.Summary != "Session: Jane Doe" {
		t.Errorf("summary = %q", ev.Summary)
	}
	if ev.Location != "Room 2" {
		t.Errorf("location = %q", ev.Location)
	}
	if !ev.End.Equal(start.Add(90 * time.Minute)) {
		t.Errorf("end = %v", ev.End)
	}
	if ev.Description != "Follow-up on treatment plan\nStatus: confirmed" {
		t.Errorf("description = %q", ev.Description)
	}
}

func TestEventFromAppointment_MinimalPayload(t *testing.T) {
	ev := eventFromAppointment(&Appointment{
		ID:       "A1",
		Start:    time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
		Duration: time.Hour,
	})
	if ev.Summary != "Session" {
		t.Errorf("summary = %q", ev.Summary)
	}
	if ev.Description != "" {
		t.Errorf("description = %q", ev.Description)
	}
}

func TestToGoogleEvent_UTCTimestamps(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ev := Event{
		Summary: "Session",
		Start:   time.Date(2024, 3, 1, 15, 0, 0, 0, loc),
		End:     time.Date(2024, 3, 1, 16, 0, 0, 0, loc),
	}

	g := toGoogleEvent(ev)
	if g.Start.DateTime != "2024-03-01T14:00:00Z" {
		t.Errorf("start = %q", g.Start.DateTime)
	}
	if g.End.DateTime != "2024-03-01T15:00:00Z" {
		t.Errorf("end = %q", g.End.DateTime)
	}
	if g.Start.TimeZone != "UTC" || g.End.TimeZone != "UTC" {
		t.Error("expected UTC time zone on both endpoints")
	}
}
