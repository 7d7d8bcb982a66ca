package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-accommodation/internal/model"
)

// AvailabilityRepo provides data access to the room_availability table,
// the per-date overrides that sit on top of a room type's defaults.
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo returns a new AvailabilityRepo bound to the
// provided database.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

// DB exposes the underlying sql.DB for transaction control.
func (r *AvailabilityRepo) DB() *sql.DB {
	return r.db
}

const availabilityColumns = `id, room_type_id, date, available_rooms, price_cents, created_at, updated_at`

// ListRange returns the override rows for one room type whose date
// falls inside the inclusive range [start, end], ordered by date.
// Dates without a row are absent from the result; the availability
// calculator fills those in from the room type defaults.
func (r *AvailabilityRepo) ListRange(ctx context.Context, roomTypeID uint64, start, end time.Time) ([]model.RoomAvailability, error) {
	const q = `SELECT ` + availabilityColumns + ` FROM room_availability
               WHERE room_type_id = ? AND date BETWEEN ? AND ?
               ORDER BY date`
	rows, err := r.db.QueryContext(ctx, q, roomTypeID, start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAvailability(rows)
}

// ListRangeTx is ListRange inside the caller's transaction, used by
// the booking-create path so the capacity check sees a consistent view
// while the room type row is locked.
func (r *AvailabilityRepo) ListRangeTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, start, end time.Time) ([]model.RoomAvailability, error) {
	const q = `SELECT ` + availabilityColumns + ` FROM room_availability
               WHERE room_type_id = ? AND date BETWEEN ? AND ?
               ORDER BY date`
	rows, err := tx.QueryContext(ctx, q, roomTypeID, start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAvailability(rows)
}

func collectAvailability(rows *sql.Rows) ([]model.RoomAvailability, error) {
	var out []model.RoomAvailability
	for rows.Next() {
		var ra model.RoomAvailability
		if err := rows.Scan(&ra.ID, &ra.RoomTypeID, &ra.Date, &ra.AvailableRooms,
			&ra.PriceCents, &ra.CreatedAt, &ra.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ra)
	}
	return out, rows.Err()
}

// Upsert writes one override row, replacing the values for the date if
// a row already exists.  Validation of the room/price ranges happens
// at the handler layer before any mutation.
func (r *AvailabilityRepo) Upsert(ctx context.Context, ra *model.RoomAvailability) error {
	const q = `INSERT INTO room_availability (room_type_id, date, available_rooms, price_cents)
               VALUES (?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE available_rooms = VALUES(available_rooms),
                                       price_cents = VALUES(price_cents),
                                       updated_at = UTC_TIMESTAMP()`
	_, err := r.db.ExecContext(ctx, q, ra.RoomTypeID, ra.Date.UTC().Format("2006-01-02"), ra.AvailableRooms, ra.PriceCents)
	return err
}

// UpsertBatchTx writes many override rows in one statement inside the
// caller's transaction, so a batch edit is all-or-nothing.  Passing an
// empty slice has no effect and returns nil.
func (r *AvailabilityRepo) UpsertBatchTx(ctx context.Context, tx *sql.Tx, updates []model.RoomAvailability) error {
	if len(updates) == 0 {
		return nil
	}
	query := `INSERT INTO room_availability (room_type_id, date, available_rooms, price_cents) VALUES `
	args := make([]interface{}, 0, len(updates)*4)
	for i, ra := range updates {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, ra.RoomTypeID, ra.Date.UTC().Format("2006-01-02"), ra.AvailableRooms, ra.PriceCents)
	}
	query += ` ON DUPLICATE KEY UPDATE available_rooms = VALUES(available_rooms),
                                       price_cents = VALUES(price_cents),
                                       updated_at = UTC_TIMESTAMP()`
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
