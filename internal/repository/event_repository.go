package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-accommodation/internal/model"
)

// EventRepo provides read access to events.  Event administration
// itself lives outside this service; bookings and notifications only
// need to resolve an event and its start date.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// GetByID retrieves an event by its ID.  Returns ErrEventNotFound when
// no matching row exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT id, name, start_date, end_date, created_at, updated_at FROM events WHERE id = ?`
	var e model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.Name, &e.StartDate, &e.EndDate, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// HotelLinked reports whether a hotel is attached to the event.  The
// booking-create path uses this to reject room types of hotels that do
// not serve the event.
func (r *EventRepo) HotelLinked(ctx context.Context, eventID, hotelID uint64) (bool, error) {
	const q = `SELECT 1 FROM event_hotels WHERE event_id = ? AND hotel_id = ?`
	var one int
	err := r.db.QueryRowContext(ctx, q, eventID, hotelID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
