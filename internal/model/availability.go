package model

import "time"

// RoomAvailability is a per-date override of a room type's defaults.
// The pair (room_type_id, date) is unique.  Absence of a row for a
// date means the room type's TotalRooms/BasePriceCents apply.
//
// Fields:
//
//	ID             – primary key identifier.
//	RoomTypeID     – room type this override belongs to.
//	Date           – the calendar date (midnight UTC).
//	AvailableRooms – rooms offered on that date; never above TotalRooms
//	                 at write time, but may drop below the count of
//	                 already-consumed rooms after staff edits.
//	PriceCents     – price per night in cents on that date.
//	CreatedAt      – creation timestamp.
//	UpdatedAt      – last update timestamp.
type RoomAvailability struct {
	ID             uint64    // room_availability.id
	RoomTypeID     uint64    // room_availability.room_type_id
	Date           time.Time // room_availability.date
	AvailableRooms int32     // room_availability.available_rooms
	PriceCents     uint32    // room_availability.price_cents
	CreatedAt      time.Time // room_availability.created_at
	UpdatedAt      time.Time // room_availability.updated_at
}
