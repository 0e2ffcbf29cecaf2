// Package reports aggregates activity counts for the operator dashboard.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Dashboard summarizes recorded activity over one reporting window.
type Dashboard struct {
	TotalEvents        int64            `json:"total_events"`
	AppointmentsBooked int64            `json:"appointments_booked"`
	Cancellations      int64            `json:"cancellations"`
	ActiveUsers        int64            `json:"active_users"`
	ActionBreakdown    map[string]int64 `json:"action_breakdown"`
	PeriodStart        string           `json:"period_start"`
	PeriodEnd          string           `json:"period_end"`
}

// Repository queries dashboard aggregates from the audit trail.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a dashboard repository over a Postgres connection.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		panic("reports: sql DB required")
	}
	return &Repository{db: db}
}

// GetDashboard aggregates audit events. If start and end are nil the window
// covers everything recorded so far.
func (r *Repository) GetDashboard(ctx context.Context, start, end *time.Time) (*Dashboard, error) {
	d := &Dashboard{ActionBreakdown: map[string]int64{}}

	var timeFilter string
	var args []any
	if start != nil && end != nil {
		timeFilter = " WHERE created_at >= $1 AND created_at < $2"
		args = append(args, *start, *end)
		d.PeriodStart = start.Format(time.RFC3339)
		d.PeriodEnd = end.Format(time.RFC3339)
	} else {
		d.PeriodStart = "all-time"
		d.PeriodEnd = "now"
	}

	totalQuery := `SELECT COUNT(*) FROM audit_events` + timeFilter
	if err := r.db.QueryRowContext(ctx, totalQuery, args...).Scan(&d.TotalEvents); err != nil {
		return nil, fmt.Errorf("reports: count events: %w", err)
	}

	usersQuery := `SELECT COUNT(DISTINCT actor_id) FROM audit_events` + timeFilter
	if err := r.db.QueryRowContext(ctx, usersQuery, args...).Scan(&d.ActiveUsers); err != nil {
		return nil, fmt.Errorf("reports: count users: %w", err)
	}

	breakdownQuery := `SELECT action, COUNT(*) FROM audit_events` + timeFilter + ` GROUP BY action`
	rows, err := r.db.QueryContext(ctx, breakdownQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("reports: action breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var action string
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("reports: scan breakdown: %w", err)
		}
		d.ActionBreakdown[action] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reports: action breakdown: %w", err)
	}

	d.AppointmentsBooked = d.ActionBreakdown["appointment.create"]
	d.Cancellations = d.ActionBreakdown["appointment.status.cancelled"]
	return d, nil
}
