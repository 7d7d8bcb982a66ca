package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-accommodation/internal/model"
)

// HotelRepo manages persistence for hotels, including the cascading
// delete that removes a hotel together with everything hanging off it.
type HotelRepo struct {
	db *sql.DB
}

// NewHotelRepo constructs a HotelRepo with the given DB handle.
func NewHotelRepo(db *sql.DB) *HotelRepo {
	return &HotelRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *HotelRepo) DB() *sql.DB {
	return r.db
}

const hotelColumns = `id, name, area, category, stars, contact_email, contact_phone, agreement_file, created_at, updated_at`

func scanHotel(row *sql.Row) (*model.Hotel, error) {
	var h model.Hotel
	err := row.Scan(&h.ID, &h.Name, &h.Area, &h.Category, &h.Stars,
		&h.ContactEmail, &h.ContactPhone, &h.AgreementFile, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts a new hotel and populates the generated ID plus the
// DB-default timestamps on the given struct.
func (r *HotelRepo) Create(ctx context.Context, h *model.Hotel) error {
	const q = `INSERT INTO hotels (name, area, category, stars, contact_email, contact_phone, agreement_file)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Area, h.Category, h.Stars,
		h.ContactEmail, h.ContactPhone, h.AgreementFile)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	const sel = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`
	got, err := scanHotel(r.db.QueryRowContext(ctx, sel, h.ID))
	if err != nil {
		return err
	}
	*h = *got
	return nil
}

// GetByID retrieves a hotel by its ID.  It returns ErrHotelNotFound
// when no matching row exists.
func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (*model.Hotel, error) {
	const q = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`
	h, err := scanHotel(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHotelNotFound
	}
	return h, err
}

// ListByEvent returns all hotels linked to an event through the
// event_hotels join table, ordered by name.
func (r *HotelRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Hotel, error) {
	const q = `SELECT h.id, h.name, h.area, h.category, h.stars, h.contact_email, h.contact_phone,
                      h.agreement_file, h.created_at, h.updated_at
               FROM hotels h
               JOIN event_hotels eh ON eh.hotel_id = h.id
               WHERE eh.event_id = ?
               ORDER BY h.name`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var hotels []model.Hotel
	for rows.Next() {
		var h model.Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.Area, &h.Category, &h.Stars,
			&h.ContactEmail, &h.ContactPhone, &h.AgreementFile, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		hotels = append(hotels, h)
	}
	return hotels, rows.Err()
}

// DeleteCascadeTx removes a hotel together with all bookings,
// availability override rows and room types that belong to it, in that
// order so foreign keys never dangle.  The caller owns the transaction
// and must commit or roll back; a failure on any statement leaves
// nothing partially deleted once the caller rolls back.
func (r *HotelRepo) DeleteCascadeTx(ctx context.Context, tx *sql.Tx, hotelID uint64) error {
	stmts := []string{
		`DELETE b FROM bookings b JOIN room_types rt ON rt.id = b.room_type_id WHERE rt.hotel_id = ?`,
		`DELETE ra FROM room_availability ra JOIN room_types rt ON rt.id = ra.room_type_id WHERE rt.hotel_id = ?`,
		`DELETE FROM room_types WHERE hotel_id = ?`,
		`DELETE FROM event_hotels WHERE hotel_id = ?`,
		`DELETE FROM hotels WHERE id = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, hotelID); err != nil {
			return err
		}
	}
	return nil
}

// LinkToEventTx attaches a hotel to an event.  Duplicate links are a
// no-op thanks to the unique key on (event_id, hotel_id).
func (r *HotelRepo) LinkToEventTx(ctx context.Context, tx *sql.Tx, eventID, hotelID uint64) error {
	const q = `INSERT IGNORE INTO event_hotels (event_id, hotel_id) VALUES (?, ?)`
	_, err := tx.ExecContext(ctx, q, eventID, hotelID)
	return err
}
