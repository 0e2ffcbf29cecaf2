package reports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetDashboardAllTime(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_events`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT actor_id\) FROM audit_events`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT action, COUNT\(\*\) FROM audit_events GROUP BY action`).
		WillReturnRows(sqlmock.NewRows([]string{"action", "count"}).
			AddRow("appointment.create", 7).
			AddRow("appointment.status.cancelled", 2).
			AddRow("appointment.update", 3))

	d, err := repo.GetDashboard(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(12), d.TotalEvents)
	assert.Equal(t, int64(3), d.ActiveUsers)
	assert.Equal(t, int64(7), d.AppointmentsBooked)
	assert.Equal(t, int64(2), d.Cancellations)
	assert.Equal(t, "all-time", d.PeriodStart)
	assert.Equal(t, "now", d.PeriodEnd)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetDashboardWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_events WHERE created_at >= \$1 AND created_at < \$2`).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT actor_id\) FROM audit_events WHERE`).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT action, COUNT\(\*\) FROM audit_events WHERE .* GROUP BY action`).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"action", "count"}).AddRow("appointment.create", 4))

	d, err := repo.GetDashboard(context.Background(), &start, &end)
	require.NoError(t, err)

	assert.Equal(t, int64(4), d.TotalEvents)
	assert.Equal(t, "2024-03-01T00:00:00Z", d.PeriodStart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_GetDashboardRejectsHalfWindow(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewHandler(NewRepository(db), logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/reports/dashboard?start=2024-03-01T00:00:00Z", nil)
	rr := httptest.NewRecorder()
	h.GetDashboard(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_GetDashboardRejectsBadTimestamp(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewHandler(NewRepository(db), logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/reports/dashboard?start=yesterday&end=today", nil)
	rr := httptest.NewRecorder()
	h.GetDashboard(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_GetDashboardOK(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_events`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT actor_id\) FROM audit_events`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT action, COUNT\(\*\) FROM audit_events GROUP BY action`).
		WillReturnRows(sqlmock.NewRows([]string{"action", "count"}).AddRow("appointment.create", 1))

	h := NewHandler(NewRepository(db), logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/reports/dashboard", nil)
	rr := httptest.NewRecorder()
	h.GetDashboard(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"appointments_booked":1`)
}
