// Package calendar fans appointment mutations out to every connected user's
// Google Calendar and reconciles the per-user event references kept locally.
package calendar

import (
	"fmt"
	"time"
)

// Op identifies which appointment mutation is being fanned out.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ParseOp validates a wire-format operation name.
func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case OpCreate, OpUpdate, OpDelete:
		return Op(s), nil
	default:
		return "", &ValidationError{Field: "operation", Reason: fmt.Sprintf("unknown operation %q", s)}
	}
}

// Appointment is the calendar-facing view of a local appointment. The domain
// packages convert their own records into this shape before syncing.
type Appointment struct {
	ID         string        `json:"id"`
	ClientName string        `json:"clientName"`
	Notes      string        `json:"notes,omitempty"`
	Location   string        `json:"location,omitempty"`
	Start      time.Time     `json:"start"`
	Duration   time.Duration `json:"-"`
	Status     string        `json:"status,omitempty"`
}

// Validate rejects payloads that cannot be turned into a calendar event.
// A validation failure aborts the whole request before any fan-out begins.
func (a *Appointment) Validate() error {
	if a == nil {
		return &ValidationError{Field: "appointment", Reason: "missing payload"}
	}
	if a.ID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if a.Start.IsZero() {
		return &ValidationError{Field: "start", Reason: "required"}
	}
	if a.Duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be positive"}
	}
	return nil
}

// Connection records one user's authorized Google Calendar account.
type Connection struct {
	UserID       string    `dynamodbav:"userId" json:"userId"`
	Email        string    `dynamodbav:"email" json:"email"`
	AccessToken  string    `dynamodbav:"accessToken" json:"-"`
	RefreshToken string    `dynamodbav:"refreshToken" json:"-"`
	TokenExpiry  time.Time `dynamodbav:"tokenExpiry,unixtime" json:"-"`
	ConnectedAt  string    `dynamodbav:"connectedAt" json:"connectedAt,omitempty"`
	LastSyncAt   string    `dynamodbav:"lastSyncAt,omitempty" json:"lastSyncAt,omitempty"`
}

// EventReference maps (appointmentID, userID) to the event ID Google assigned
// in that user's calendar. Subsequent updates and deletes target this ID so a
// re-sync never creates duplicate events.
type EventReference struct {
	AppointmentID string `dynamodbav:"appointmentId" json:"appointmentId"`
	UserID        string `dynamodbav:"userId" json:"userId"`
	EventID       string `dynamodbav:"eventId" json:"eventId"`
	UpdatedAt     string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// Outcome is the per-user result of one fan-out.
type Outcome struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	// Op is the operation actually performed for this user, which may differ
	// from the requested one: a create degrades to an update when the event
	// already exists, and an update falls back to a create when it does not.
	Op      Op     `json:"op"`
	Success bool   `json:"success"`
	EventID string `json:"eventId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SyncResult aggregates a fan-out. Partial failure is a normal, reportable
// outcome, never an error return.
type SyncResult struct {
	Success         bool      `json:"success"`
	TotalUsers      int       `json:"totalUsers"`
	SuccessfulSyncs int       `json:"successfulSyncs"`
	UserResults     []Outcome `json:"userResults"`
	Errors          []string  `json:"errors"`
}

// BackfillResult aggregates a sync-all-existing run for one user.
type BackfillResult struct {
	Success         bool     `json:"success"`
	TotalItems      int      `json:"totalItems"`
	SuccessfulSyncs int      `json:"successfulSyncs"`
	Errors          []string `json:"errors"`
}
