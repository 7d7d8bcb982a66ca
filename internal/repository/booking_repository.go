// Package repository: data access for bookings.  Bookings are the only
// rows that consume inventory, so this file also derives the per-date
// consumption counts the availability calculator subtracts.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-accommodation/internal/availability"
	"github.com/iliyamo/event-accommodation/internal/model"
)

// BookingRepo manages persistence for bookings and their append-only
// modification history.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// DB exposes the underlying sql.DB for transaction control.
func (r *BookingRepo) DB() *sql.DB {
	return r.db
}

const bookingColumns = `id, event_id, person_id, room_type_id, check_in_date, check_out_date,
                        total_cost_cents, payable, status, modification_type, modification_date,
                        created_at, updated_at`

func scanBooking(scan func(dest ...any) error) (*model.Booking, error) {
	var b model.Booking
	err := scan(&b.ID, &b.EventID, &b.PersonID, &b.RoomTypeID, &b.CheckInDate, &b.CheckOutDate,
		&b.TotalCostCents, &b.Payable, &b.Status, &b.ModificationType, &b.ModificationDate,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateTx inserts a new booking with status pending inside the
// caller's transaction and populates the generated ID and DB-default
// fields on the given struct.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (event_id, person_id, room_type_id, check_in_date, check_out_date, total_cost_cents, payable, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.EventID, b.PersonID, b.RoomTypeID,
		b.CheckInDate.UTC().Format("2006-01-02"), b.CheckOutDate.UTC().Format("2006-01-02"),
		b.TotalCostCents, b.Payable, model.BookingStatusPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	got, err := scanBooking(tx.QueryRowContext(ctx, sel, b.ID).Scan)
	if err != nil {
		return err
	}
	*b = *got
	return nil
}

// GetByID retrieves a booking by its ID.  It returns
// ErrBookingNotFound when no matching row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetByIDForUpdateTx loads a booking with a row lock so a status
// transition cannot race with another writer.
func (r *BookingRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// OverwriteTx replaces a booking's room type, dates and cost, and
// stamps the modification marker.  modType must be date_change or
// room_change; the caller decides based on what actually changed.
func (r *BookingRepo) OverwriteTx(ctx context.Context, tx *sql.Tx, b *model.Booking, modType string) error {
	const q = `UPDATE bookings
               SET room_type_id = ?, check_in_date = ?, check_out_date = ?, total_cost_cents = ?,
                   modification_type = ?, modification_date = UTC_TIMESTAMP(), updated_at = UTC_TIMESTAMP()
               WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, b.RoomTypeID,
		b.CheckInDate.UTC().Format("2006-01-02"), b.CheckOutDate.UTC().Format("2006-01-02"),
		b.TotalCostCents, modType, b.ID)
	return err
}

// TransitionStatusTx moves a booking to a new status, enforcing the
// transition table.  modType is stored on the row when non-empty (the
// cancellation path records "cancelled").  The locked current status
// decides whether the transition is legal.
func (r *BookingRepo) TransitionStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, to, modType string) error {
	b, err := r.GetByIDForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if !model.CanTransition(b.Status, to) {
		return ErrInvalidTransition
	}
	if modType != "" {
		const q = `UPDATE bookings SET status = ?, modification_type = ?, modification_date = UTC_TIMESTAMP(), updated_at = UTC_TIMESTAMP() WHERE id = ?`
		_, err = tx.ExecContext(ctx, q, to, modType, bookingID)
		return err
	}
	const q = `UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err = tx.ExecContext(ctx, q, to, bookingID)
	return err
}

// AppendModificationTx writes one row of the append-only modification
// history.
func (r *BookingRepo) AppendModificationTx(ctx context.Context, tx *sql.Tx, bookingID uint64, kind string, detail *string) error {
	const q = `INSERT INTO booking_modifications (booking_id, kind, detail) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, bookingID, kind, detail)
	return err
}

// CancelByCompanyTx cancels every active booking of the event whose
// guest's company matches, in one statement so the bulk cancel is
// all-or-nothing.  It returns the number of bookings flipped.
func (r *BookingRepo) CancelByCompanyTx(ctx context.Context, tx *sql.Tx, eventID uint64, company string) (int64, error) {
	const q = `UPDATE bookings b
               JOIN people_details pd ON pd.person_id = b.person_id
               SET b.status = ?, b.modification_type = ?, b.modification_date = UTC_TIMESTAMP(), b.updated_at = UTC_TIMESTAMP()
               WHERE b.event_id = ? AND pd.company = ? AND b.status IN (?, ?)`
	res, err := tx.ExecContext(ctx, q, model.BookingStatusCancelled, model.ModificationCancelled,
		eventID, company, model.BookingStatusPending, model.BookingStatusConfirmed)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ActiveByRoomType returns all active bookings of one room type,
// ordered by check-in date.  Used by the cost recalculation pass.
func (r *BookingRepo) ActiveByRoomType(ctx context.Context, roomTypeID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
               WHERE room_type_id = ? AND status IN (?, ?)
               ORDER BY check_in_date`
	rows, err := r.db.QueryContext(ctx, q, roomTypeID, model.BookingStatusPending, model.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// UpdateCostTx rewrites a booking's total cost without touching the
// modification marker; a price recalculation is not a guest-visible
// change of the stay itself.
func (r *BookingRepo) UpdateCostTx(ctx context.Context, tx *sql.Tx, bookingID uint64, costCents uint32) error {
	const q = `UPDATE bookings SET total_cost_cents = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, costCents, bookingID)
	return err
}

// CountActivePerDateTx derives, per midnight-UTC date in [start, end],
// how many rooms of the room type are consumed by active bookings.
// The [check_in, check_out) interval semantics mean the check-out
// night is never counted.
func (r *BookingRepo) CountActivePerDateTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, start, end time.Time) (map[time.Time]int, error) {
	const q = `SELECT check_in_date, check_out_date FROM bookings
               WHERE room_type_id = ? AND status IN (?, ?)
                 AND check_in_date <= ? AND check_out_date > ?`
	rows, err := tx.QueryContext(ctx, q, roomTypeID, model.BookingStatusPending, model.BookingStatusConfirmed,
		end.UTC().Format("2006-01-02"), start.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return countNights(rows, start, end)
}

// CountActivePerDate is CountActivePerDateTx on the plain DB handle,
// used by read-only availability grids.
func (r *BookingRepo) CountActivePerDate(ctx context.Context, roomTypeID uint64, start, end time.Time) (map[time.Time]int, error) {
	const q = `SELECT check_in_date, check_out_date FROM bookings
               WHERE room_type_id = ? AND status IN (?, ?)
                 AND check_in_date <= ? AND check_out_date > ?`
	rows, err := r.db.QueryContext(ctx, q, roomTypeID, model.BookingStatusPending, model.BookingStatusConfirmed,
		end.UTC().Format("2006-01-02"), start.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return countNights(rows, start, end)
}

func countNights(rows *sql.Rows, start, end time.Time) (map[time.Time]int, error) {
	from, to := availability.Midnight(start), availability.Midnight(end)
	counts := make(map[time.Time]int)
	for rows.Next() {
		var in, out time.Time
		if err := rows.Scan(&in, &out); err != nil {
			return nil, err
		}
		for d := availability.Midnight(in); d.Before(availability.Midnight(out)); d = d.AddDate(0, 0, 1) {
			if d.Before(from) || d.After(to) {
				continue
			}
			counts[d]++
		}
	}
	return counts, rows.Err()
}

// ChangedBooking joins a changed booking with the guest, hotel and
// room type details the notification email needs.
type ChangedBooking struct {
	BookingID      uint64    `json:"booking_id"`
	Status         string    `json:"status"`
	CheckInDate    time.Time `json:"check_in_date"`
	CheckOutDate   time.Time `json:"check_out_date"`
	TotalCostCents uint32    `json:"total_cost_cents"`
	GuestID        uint64    `json:"guest_id"`
	GuestFirstName string    `json:"guest_first_name"`
	GuestLastName  string    `json:"guest_last_name"`
	GuestEmail     string    `json:"guest_email"`
	HotelName      string    `json:"hotel_name"`
	RoomTypeName   string    `json:"room_type_name"`
}

// ChangedSince returns the active (confirmed or pending) bookings of
// an event whose created_at, updated_at or modification_date is
// strictly greater than since, joined with guest and hotel details.
func (r *BookingRepo) ChangedSince(ctx context.Context, eventID uint64, since time.Time) ([]ChangedBooking, error) {
	const q = `SELECT b.id, b.status, b.check_in_date, b.check_out_date, b.total_cost_cents,
                      p.id, p.first_name, p.last_name, p.email, h.name, rt.name
               FROM bookings b
               JOIN people p ON p.id = b.person_id
               JOIN room_types rt ON rt.id = b.room_type_id
               JOIN hotels h ON h.id = rt.hotel_id
               WHERE b.event_id = ?
                 AND b.status IN (?, ?)
                 AND (b.updated_at > ? OR b.created_at > ? OR (b.modification_date IS NOT NULL AND b.modification_date > ?))
               ORDER BY b.id`
	ts := since.UTC().Format("2006-01-02 15:04:05")
	rows, err := r.db.QueryContext(ctx, q, eventID,
		model.BookingStatusConfirmed, model.BookingStatusPending, ts, ts, ts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChangedBooking
	for rows.Next() {
		var cb ChangedBooking
		if err := rows.Scan(&cb.BookingID, &cb.Status, &cb.CheckInDate, &cb.CheckOutDate, &cb.TotalCostCents,
			&cb.GuestID, &cb.GuestFirstName, &cb.GuestLastName, &cb.GuestEmail, &cb.HotelName, &cb.RoomTypeName); err != nil {
			return nil, err
		}
		out = append(out, cb)
	}
	return out, rows.Err()
}

// RosterRow is one line of the check-in roster a hotel receives:
// guest, company, room type and stay dates for every active booking.
type RosterRow struct {
	BookingID      uint64
	GuestFirstName string
	GuestLastName  string
	GuestEmail     string
	Company        *string
	RoomTypeName   string
	Status         string
	CheckInDate    time.Time
	CheckOutDate   time.Time
}

// RosterByEventAndHotel lists the active bookings of one event at one
// hotel, ordered by check-in date then guest name, for the printable
// roster.
func (r *BookingRepo) RosterByEventAndHotel(ctx context.Context, eventID, hotelID uint64) ([]RosterRow, error) {
	const q = `SELECT b.id, p.first_name, p.last_name, p.email, pd.company,
                      rt.name, b.status, b.check_in_date, b.check_out_date
               FROM bookings b
               JOIN people p ON p.id = b.person_id
               LEFT JOIN people_details pd ON pd.person_id = p.id
               JOIN room_types rt ON rt.id = b.room_type_id
               WHERE b.event_id = ?
                 AND rt.hotel_id = ?
                 AND b.status IN (?, ?)
               ORDER BY b.check_in_date, p.last_name, p.first_name`
	rows, err := r.db.QueryContext(ctx, q, eventID, hotelID,
		model.BookingStatusConfirmed, model.BookingStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RosterRow
	for rows.Next() {
		var rr RosterRow
		if err := rows.Scan(&rr.BookingID, &rr.GuestFirstName, &rr.GuestLastName, &rr.GuestEmail,
			&rr.Company, &rr.RoomTypeName, &rr.Status, &rr.CheckInDate, &rr.CheckOutDate); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// PromoteToConfirmed flips one pending booking to confirmed.  The
// dispatcher calls this per booking after a successful send and
// tolerates individual failures, so this runs on the plain DB handle
// rather than a batch transaction.
func (r *BookingRepo) PromoteToConfirmed(ctx context.Context, bookingID uint64) error {
	const q = `UPDATE bookings SET status = ?, updated_at = updated_at WHERE id = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, q, model.BookingStatusConfirmed, bookingID, model.BookingStatusPending)
	return err
}
