// Package notify sends appointment lifecycle emails to the clinic inbox.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/caseflowhq/caseflow/internal/appointments"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

// Config holds the destination inbox for appointment notifications.
type Config struct {
	// Recipient is the clinic inbox that receives appointment emails.
	Recipient     string
	RecipientName string
}

// Service composes and sends appointment emails. It implements
// appointments.Notifier.
type Service struct {
	sender EmailSender
	cfg    Config
	logger *logging.Logger
}

// NewService creates a notification service. Sender is required.
func NewService(sender EmailSender, cfg Config, logger *logging.Logger) *Service {
	if sender == nil {
		panic("notify: service requires an email sender")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RecipientName == "" {
		cfg.RecipientName = "Caseflow"
	}
	return &Service{sender: sender, cfg: cfg, logger: logger}
}

// SendAppointmentConfirmation emails the clinic inbox about a newly booked
// appointment.
func (s *Service) SendAppointmentConfirmation(ctx context.Context, appt *appointments.Appointment) error {
	if s.cfg.Recipient == "" {
		s.logger.Debug("no notification recipient configured, skipping confirmation", "appointment_id", appt.ID)
		return nil
	}

	subject := fmt.Sprintf("Appointment booked: %s", appt.ClientName)
	body := appointmentBody("A new appointment has been booked.", appt)

	if err := s.sender.Send(ctx, EmailMessage{
		To:      s.cfg.Recipient,
		ToName:  s.cfg.RecipientName,
		Subject: subject,
		Body:    body,
	}); err != nil {
		return fmt.Errorf("notify: confirmation for %s: %w", appt.ID, err)
	}

	s.logger.Info("confirmation email sent", "appointment_id", appt.ID, "client", appt.ClientName)
	return nil
}

// SendAppointmentReminder emails the clinic inbox ahead of an upcoming
// appointment.
func (s *Service) SendAppointmentReminder(ctx context.Context, appt *appointments.Appointment) error {
	if s.cfg.Recipient == "" {
		s.logger.Debug("no notification recipient configured, skipping reminder", "appointment_id", appt.ID)
		return nil
	}

	subject := fmt.Sprintf("Upcoming appointment: %s", appt.ClientName)
	body := appointmentBody("Reminder: this appointment is coming up.", appt)

	if err := s.sender.Send(ctx, EmailMessage{
		To:      s.cfg.Recipient,
		ToName:  s.cfg.RecipientName,
		Subject: subject,
		Body:    body,
	}); err != nil {
		return fmt.Errorf("notify: reminder for %s: %w", appt.ID, err)
	}

	s.logger.Info("reminder email sent", "appointment_id", appt.ID, "client", appt.ClientName)
	return nil
}

func appointmentBody(lead string, appt *appointments.Appointment) string {
	when := appt.DateOfSession
	if start, err := appt.Start(); err == nil {
		when = start.Format("Monday, January 2 2006 at 3:04 PM MST")
	}

	body := fmt.Sprintf("%s\n\nClient: %s\nWhen: %s\nDuration: %s\nStatus: %s\n",
		lead,
		appt.ClientName,
		when,
		time.Duration(appt.Duration)*time.Minute,
		appt.Status,
	)
	if appt.Location != "" {
		body += fmt.Sprintf("Location: %s\n", appt.Location)
	}
	if appt.Notes != "" {
		body += fmt.Sprintf("\nNotes:\n%s\n", appt.Notes)
	}
	return body
}

var _ appointments.Notifier = (*Service)(nil)
