package handler

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-accommodation/internal/dispatch"
	"github.com/iliyamo/event-accommodation/internal/mailer"
	"github.com/iliyamo/event-accommodation/internal/model"
	"github.com/iliyamo/event-accommodation/internal/repository"
)

func newNotificationHandler(db *sql.DB) *NotificationHandler {
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	notifications := repository.NewNotificationRepo(db)
	d := dispatch.NewDispatcher(bookings, notifications, events, &mailer.MockSender{})
	return NewNotificationHandler(events, bookings, notifications, d)
}

func eventRows(id uint64, start time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "start_date", "end_date", "created_at", "updated_at",
	}).AddRow(id, "DevConf", start, start.AddDate(0, 0, 3), now, now)
}

func TestAppendNotification_RejectsUnknownType(t *testing.T) {
	db, _ := newMockDB(t)
	h := newNotificationHandler(db)

	body := `{"event_id":1,"notification_type":"CARRIER_PIGEON","status":"sent"}`
	rec := doRequest(t, http.MethodPost, "/v1/email-notifications", body, nil, h.AppendNotification)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid notification_type")
}

func TestAppendNotification_FailedStatusPersistsButReturns500(t *testing.T) {
	db, mock := newMockDB(t)
	h := newNotificationHandler(db)

	mock.ExpectExec("INSERT INTO email_notifications").
		WillReturnResult(sqlmock.NewResult(42, 1))

	body := `{"event_id":1,"guest_id":100,"notification_type":"INDIVIDUAL","status":"failed","error_message":"bounced"}`
	rec := doRequest(t, http.MethodPost, "/v1/email-notifications", body, nil, h.AppendNotification)

	// The audit row was written, yet callers must see the attempt as
	// unsuccessful.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":42`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendNotification_SentIsCreated(t *testing.T) {
	db, mock := newMockDB(t)
	h := newNotificationHandler(db)

	mock.ExpectExec("INSERT INTO email_notifications").
		WillReturnResult(sqlmock.NewResult(43, 1))

	body := `{"event_id":1,"notification_type":"BULK","status":"sent"}`
	rec := doRequest(t, http.MethodPost, "/v1/email-notifications", body, nil, h.AppendNotification)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestLastNotification_SynthesizesMockFromEventStart(t *testing.T) {
	db, mock := newMockDB(t)
	h := newNotificationHandler(db)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	// No audit rows at all for the event.
	mock.ExpectQuery("FROM email_notifications").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("FROM events WHERE id = \\?").
		WithArgs(1).
		WillReturnRows(eventRows(1, start))

	rec := doRequest(t, http.MethodGet, "/v1/email-notifications/last?event_id=1", "", nil, h.LastNotification)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"notification_type":"MOCK"`)
	assert.Contains(t, rec.Body.String(), "2026-09-01T00:00:00Z")
}

func TestLastNotification_RequiresEventID(t *testing.T) {
	db, _ := newMockDB(t)
	h := newNotificationHandler(db)

	rec := doRequest(t, http.MethodGet, "/v1/email-notifications/last", "", nil, h.LastNotification)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuestsWithChanges_ExplicitSince(t *testing.T) {
	db, mock := newMockDB(t)
	h := newNotificationHandler(db)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM events WHERE id = \\?").
		WithArgs(1).
		WillReturnRows(eventRows(1, start))
	mock.ExpectQuery("SELECT b.id, b.status, b.check_in_date").
		WithArgs(1, model.BookingStatusConfirmed, model.BookingStatusPending,
			"2026-05-01 12:00:00", "2026-05-01 12:00:00", "2026-05-01 12:00:00").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "status", "check_in_date", "check_out_date", "total_cost_cents",
			"guest_id", "first_name", "last_name", "email", "hotel_name", "room_type_name",
		}).AddRow(10, model.BookingStatusPending, start, start.AddDate(0, 0, 2), 30000,
			100, "Ada", "Lovelace", "ada@example.com", "Grand Hotel", "Double"))

	rec := doRequest(t, http.MethodGet,
		"/v1/events/1/guests-with-changes?since=2026-05-01T12:00:00Z", "",
		func(c echo.Context) {
			c.SetParamNames("id")
			c.SetParamValues("1")
		}, h.GuestsWithChanges)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), "ada@example.com")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestsWithChanges_InvalidSince(t *testing.T) {
	db, mock := newMockDB(t)
	h := newNotificationHandler(db)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM events WHERE id = \\?").
		WithArgs(1).
		WillReturnRows(eventRows(1, start))

	rec := doRequest(t, http.MethodGet, "/v1/events/1/guests-with-changes?since=yesterday", "",
		func(c echo.Context) {
			c.SetParamNames("id")
			c.SetParamValues("1")
		}, h.GuestsWithChanges)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "RFC3339")
}
