// Package appointments manages the clinic's appointment records and pushes
// every mutation into the connected users' calendars.
package appointments

import (
	"time"

	"github.com/caseflowhq/caseflow/internal/calendar"
)

// Appointment represents one scheduled session.
type Appointment struct {
	ID            string `dynamodbav:"id" json:"id"`
	ClientID      string `dynamodbav:"clientId" json:"client_id"`
	ClientName    string `dynamodbav:"clientName" json:"client_name"`
	Notes         string `dynamodbav:"notes" json:"notes,omitempty"`
	Location      string `dynamodbav:"location" json:"location,omitempty"`
	DateOfSession string `dynamodbav:"dateOfSession" json:"date_of_session"` // RFC 3339
	Duration      int    `dynamodbav:"duration" json:"duration"`             // minutes
	Status        string `dynamodbav:"status" json:"status"`
	CreatedBy     string `dynamodbav:"createdBy" json:"created_by,omitempty"`
	CreatedAt     string `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt     string `dynamodbav:"updatedAt" json:"updated_at"`
}

// Appointment status lifecycle.
const (
	StatusTentative = "tentative"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

func validStatus(s string) bool {
	switch s {
	case StatusTentative, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Start parses the session timestamp.
func (a *Appointment) Start() (time.Time, error) {
	return time.Parse(time.RFC3339, a.DateOfSession)
}

// CalendarPayload converts the record into the calendar-facing shape.
func (a *Appointment) CalendarPayload() (*calendar.Appointment, error) {
	start, err := a.Start()
	if err != nil {
		return nil, err
	}
	return &calendar.Appointment{
		ID:         a.ID,
		ClientName: a.ClientName,
		Notes:      a.Notes,
		Location:   a.Location,
		Start:      start,
		Duration:   time.Duration(a.Duration) * time.Minute,
		Status:     a.Status,
	}, nil
}

// CreateAppointmentRequest is the request body for creating an appointment.
type CreateAppointmentRequest struct {
	ClientID      string `json:"client_id"`
	ClientName    string `json:"client_name"`
	Notes         string `json:"notes"`
	Location      string `json:"location"`
	DateOfSession string `json:"date_of_session"`
	Duration      int    `json:"duration"`
	Status        string `json:"status"`
	CreatedBy     string `json:"created_by"`
}

// Validate validates the create appointment request.
func (r *CreateAppointmentRequest) Validate() error {
	if r.ClientName == "" {
		return ErrMissingClient
	}
	if _, err := time.Parse(time.RFC3339, r.DateOfSession); err != nil {
		return ErrInvalidDate
	}
	if r.Duration <= 0 {
		return ErrInvalidDuration
	}
	if r.Status != "" && !validStatus(r.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// UpdateAppointmentRequest is the request body for updating an appointment.
// Nil fields are left unchanged.
type UpdateAppointmentRequest struct {
	ClientName    *string `json:"client_name"`
	Notes         *string `json:"notes"`
	Location      *string `json:"location"`
	DateOfSession *string `json:"date_of_session"`
	Duration      *int    `json:"duration"`
	Status        *string `json:"status"`
}

// Validate validates the update request.
func (r *UpdateAppointmentRequest) Validate() error {
	if r.DateOfSession != nil {
		if _, err := time.Parse(time.RFC3339, *r.DateOfSession); err != nil {
			return ErrInvalidDate
		}
	}
	if r.Duration != nil && *r.Duration <= 0 {
		return ErrInvalidDuration
	}
	if r.Status != nil && !validStatus(*r.Status) {
		return ErrInvalidStatus
	}
	return nil
}
