package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-accommodation/internal/model"
)

// RoomTypeRepo manages persistence for room types and the bulk
// seeding/clamping of their availability override rows.
type RoomTypeRepo struct {
	db *sql.DB
}

// NewRoomTypeRepo constructs a RoomTypeRepo with the given DB handle.
func NewRoomTypeRepo(db *sql.DB) *RoomTypeRepo {
	return &RoomTypeRepo{db: db}
}

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *RoomTypeRepo) DB() *sql.DB {
	return r.db
}

const roomTypeColumns = `id, hotel_id, name, total_rooms, base_price_cents, description, created_at, updated_at`

func scanRoomType(scan func(dest ...any) error) (*model.RoomType, error) {
	var rt model.RoomType
	err := scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.TotalRooms, &rt.BasePriceCents,
		&rt.Description, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// CreateTx inserts a new room type within the caller's transaction and
// populates the generated ID.  Use SeedAvailabilityTx afterwards to
// create the override rows for the booking horizon.
func (r *RoomTypeRepo) CreateTx(ctx context.Context, tx *sql.Tx, rt *model.RoomType) error {
	const q = `INSERT INTO room_types (hotel_id, name, total_rooms, base_price_cents, description)
               VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rt.HotelID, rt.Name, rt.TotalRooms, rt.BasePriceCents, rt.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	const sel = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE id = ?`
	got, err := scanRoomType(tx.QueryRowContext(ctx, sel, rt.ID).Scan)
	if err != nil {
		return err
	}
	*rt = *got
	return nil
}

// SeedAvailabilityTx bulk-inserts one override row per date from start
// for `days` days, all carrying the room type's defaults.  Rows are
// inserted in a single statement, mirroring how show seats are seeded
// when a show is created.
func (r *RoomTypeRepo) SeedAvailabilityTx(ctx context.Context, tx *sql.Tx, rt *model.RoomType, start time.Time, days int) error {
	if days <= 0 {
		return nil
	}
	query := `INSERT INTO room_availability (room_type_id, date, available_rooms, price_cents) VALUES `
	args := make([]interface{}, 0, days*4)
	for i := 0; i < days; i++ {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		d := start.UTC().AddDate(0, 0, i)
		args = append(args, rt.ID, d.Format("2006-01-02"), rt.TotalRooms, rt.BasePriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a room type by its ID.  It returns
// ErrRoomTypeNotFound when no matching row exists.
func (r *RoomTypeRepo) GetByID(ctx context.Context, id uint64) (*model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE id = ?`
	rt, err := scanRoomType(r.db.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomTypeNotFound
	}
	return rt, err
}

// GetByIDForUpdateTx loads a room type with a row lock so that the
// capacity check and the booking insert that follow cannot interleave
// with a concurrent booking for the same room type.
func (r *RoomTypeRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE id = ? FOR UPDATE`
	rt, err := scanRoomType(tx.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomTypeNotFound
	}
	return rt, err
}

// ListByHotel returns all room types of a hotel ordered by name.
func (r *RoomTypeRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE hotel_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}

// UpdateTx overwrites a room type's mutable fields.  When the capacity
// ceiling shrinks, existing override rows are clamped so that no date
// offers more than the new total.  Both statements run in the caller's
// transaction.
func (r *RoomTypeRepo) UpdateTx(ctx context.Context, tx *sql.Tx, rt *model.RoomType) error {
	const q = `UPDATE room_types SET name = ?, total_rooms = ?, base_price_cents = ?, description = ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, rt.Name, rt.TotalRooms, rt.BasePriceCents, rt.Description, rt.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op
		// update; confirm existence before reporting not found.
		var exists uint64
		if scanErr := tx.QueryRowContext(ctx, `SELECT id FROM room_types WHERE id = ?`, rt.ID).Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return ErrRoomTypeNotFound
			}
			return scanErr
		}
	}
	const clamp = `UPDATE room_availability SET available_rooms = LEAST(available_rooms, ?), updated_at = UTC_TIMESTAMP()
                   WHERE room_type_id = ? AND available_rooms > ?`
	_, err = tx.ExecContext(ctx, clamp, rt.TotalRooms, rt.ID, rt.TotalRooms)
	return err
}

// DeleteCascadeTx removes a room type together with its bookings and
// availability override rows.  The caller owns the transaction.
func (r *RoomTypeRepo) DeleteCascadeTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64) error {
	stmts := []string{
		`DELETE FROM bookings WHERE room_type_id = ?`,
		`DELETE FROM room_availability WHERE room_type_id = ?`,
		`DELETE FROM room_types WHERE id = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, roomTypeID); err != nil {
			return err
		}
	}
	return nil
}
