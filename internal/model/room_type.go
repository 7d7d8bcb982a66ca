package model

import "time"

// RoomType is a bookable category within a hotel (e.g. "Deluxe Double").
// It carries the capacity ceiling and the default nightly rate that
// apply to every date without an availability override row.  Each room
// type belongs to exactly one hotel.
//
// Fields:
//
//	ID                  – primary key identifier.
//	HotelID             – owning hotel.
//	Name                – room type name, unique per hotel.
//	TotalRooms          – capacity ceiling for any single date.
//	BasePriceCents      – default price per night in cents.
//	Description         – optional description.
//	CreatedAt           – creation timestamp.
//	UpdatedAt           – last update timestamp.
type RoomType struct {
	ID             uint64    // room_types.id
	HotelID        uint64    // room_types.hotel_id
	Name           string    // room_types.name
	TotalRooms     uint32    // room_types.total_rooms
	BasePriceCents uint32    // room_types.base_price_cents
	Description    *string   // room_types.description (nullable)
	CreatedAt      time.Time // room_types.created_at
	UpdatedAt      time.Time // room_types.updated_at
}
