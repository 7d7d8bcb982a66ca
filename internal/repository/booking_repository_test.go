package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-accommodation/internal/model"
)

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "event_id", "person_id", "room_type_id", "check_in_date", "check_out_date",
		"total_cost_cents", "payable", "status", "modification_type", "modification_date",
		"created_at", "updated_at",
	})
}

func TestBookingRepo_TransitionStatusTx_Cancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = \\? FOR UPDATE").
		WithArgs(5).
		WillReturnRows(bookingRows().AddRow(
			5, 1, 2, 3, now, now.AddDate(0, 0, 2),
			20000, true, model.BookingStatusConfirmed, nil, nil, now, now))
	mock.ExpectExec("UPDATE bookings SET status = \\?, modification_type = \\?").
		WithArgs(model.BookingStatusCancelled, model.ModificationCancelled, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewBookingRepo(db)
	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.TransitionStatusTx(context.Background(), tx, 5, model.BookingStatusCancelled, model.ModificationCancelled)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_TransitionStatusTx_RejectsCancelledToConfirmed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(5).
		WillReturnRows(bookingRows().AddRow(
			5, 1, 2, 3, now, now.AddDate(0, 0, 2),
			20000, true, model.BookingStatusCancelled, nil, nil, now, now))
	mock.ExpectRollback()

	repo := NewBookingRepo(db)
	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.TransitionStatusTx(context.Background(), tx, 5, model.BookingStatusConfirmed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	require.NoError(t, tx.Rollback())
}

func TestBookingRepo_TransitionStatusTx_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(99).WillReturnRows(bookingRows())
	mock.ExpectRollback()

	repo := NewBookingRepo(db)
	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.TransitionStatusTx(context.Background(), tx, 99, model.BookingStatusCancelled, model.ModificationCancelled)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	require.NoError(t, tx.Rollback())
}

func TestBookingRepo_CancelByCompanyTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings b\\s+JOIN people_details pd").
		WithArgs(model.BookingStatusCancelled, model.ModificationCancelled,
			7, "Acme GmbH", model.BookingStatusPending, model.BookingStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	repo := NewBookingRepo(db)
	tx, err := db.Begin()
	require.NoError(t, err)
	n, err := repo.CancelByCompanyTx(context.Background(), tx, 7, "Acme GmbH")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_CountActivePerDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := func(day int) time.Time { return time.Date(2026, 6, day, 0, 0, 0, 0, time.UTC) }

	// Two overlapping stays: one 1st-3rd, one 2nd-4th.
	mock.ExpectQuery("SELECT check_in_date, check_out_date FROM bookings").
		WithArgs(3, model.BookingStatusPending, model.BookingStatusConfirmed, "2026-06-03", "2026-06-01").
		WillReturnRows(sqlmock.NewRows([]string{"check_in_date", "check_out_date"}).
			AddRow(d(1), d(3)).
			AddRow(d(2), d(4)))

	counts, err := NewBookingRepo(db).CountActivePerDate(context.Background(), 3, d(1), d(3))
	require.NoError(t, err)
	assert.Equal(t, 1, counts[d(1)])
	assert.Equal(t, 2, counts[d(2)])
	assert.Equal(t, 1, counts[d(3)])
	assert.Zero(t, counts[d(4)], "check-out night is never counted")
}

func TestBookingRepo_PromoteToConfirmed_PreservesUpdatedAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The statement must keep updated_at untouched so a promoted
	// booking does not reappear in the next changed-since window.
	mock.ExpectExec("UPDATE bookings SET status = \\?, updated_at = updated_at WHERE id = \\? AND status = \\?").
		WithArgs(model.BookingStatusConfirmed, 10, model.BookingStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewBookingRepo(db).PromoteToConfirmed(context.Background(), 10))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_ChangedSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	since := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ts := "2026-05-01 12:00:00"
	checkIn := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT b.id, b.status, b.check_in_date").
		WithArgs(1, model.BookingStatusConfirmed, model.BookingStatusPending, ts, ts, ts).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "status", "check_in_date", "check_out_date", "total_cost_cents",
			"guest_id", "first_name", "last_name", "email", "hotel_name", "room_type_name",
		}).AddRow(10, model.BookingStatusPending, checkIn, checkOut, 30000,
			100, "Ada", "Lovelace", "ada@example.com", "Grand Hotel", "Double"))

	out, err := NewBookingRepo(db).ChangedSince(context.Background(), 1, since)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(10), out[0].BookingID)
	assert.Equal(t, "ada@example.com", out[0].GuestEmail)
	assert.Equal(t, "Grand Hotel", out[0].HotelName)
}

func TestBookingRepo_RosterByEventAndHotel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	checkIn := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC)
	company := "Acme GmbH"

	mock.ExpectQuery("SELECT b.id, p.first_name, p.last_name, p.email, pd.company").
		WithArgs(1, 2, model.BookingStatusConfirmed, model.BookingStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "company",
			"name", "status", "check_in_date", "check_out_date",
		}).AddRow(10, "Ada", "Lovelace", "ada@example.com", company,
			"Double", model.BookingStatusConfirmed, checkIn, checkOut))

	rows, err := NewBookingRepo(db).RosterByEventAndHotel(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Lovelace", rows[0].GuestLastName)
	require.NotNil(t, rows[0].Company)
	assert.Equal(t, company, *rows[0].Company)
}
