package model

import "time"

// Booking status values.  A booking is "active" while its status is
// pending or confirmed; cancelled and invalidated bookings never count
// against inventory.
const (
	BookingStatusPending     = "pending"
	BookingStatusConfirmed   = "confirmed"
	BookingStatusCancelled   = "cancelled"
	BookingStatusInvalidated = "invalidated"
)

// Modification type values recorded on the booking row and in the
// booking_modifications history table.
const (
	ModificationDateChange = "date_change"
	ModificationRoomChange = "room_change"
	ModificationCancelled  = "cancelled"
)

// bookingTransitions is the explicit transition table for booking
// statuses.  Any transition not listed here is rejected by
// CanTransition.
var bookingTransitions = map[string]map[string]bool{
	BookingStatusPending: {
		BookingStatusConfirmed:   true,
		BookingStatusCancelled:   true,
		BookingStatusInvalidated: true,
	},
	BookingStatusConfirmed: {
		BookingStatusCancelled:   true,
		BookingStatusInvalidated: true,
	},
}

// CanTransition reports whether a booking may move from one status to
// another.  Self-transitions are not allowed.
func CanTransition(from, to string) bool {
	return bookingTransitions[from][to]
}

// IsActiveStatus reports whether a status counts against inventory.
func IsActiveStatus(status string) bool {
	return status == BookingStatusPending || status == BookingStatusConfirmed
}

// Booking records one guest's stay in a room type for an event.  The
// check-out date is exclusive: the check-out night is not consumed and
// not charged.
//
// Fields:
//
//	ID               – primary key identifier.
//	EventID          – event this booking belongs to.
//	PersonID         – the guest.
//	RoomTypeID       – the booked room type.
//	CheckInDate      – first consumed night (midnight UTC).
//	CheckOutDate     – exclusive end of the stay (midnight UTC).
//	TotalCostCents   – sum of nightly prices over [CheckIn, CheckOut).
//	Payable          – whether the guest pays for the stay themselves.
//	Status           – pending, confirmed, cancelled or invalidated.
//	ModificationType – last meaningful change (nullable).
//	ModificationDate – when that change happened (nullable).
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last update timestamp.
type Booking struct {
	ID               uint64     // bookings.id
	EventID          uint64     // bookings.event_id
	PersonID         uint64     // bookings.person_id
	RoomTypeID       uint64     // bookings.room_type_id
	CheckInDate      time.Time  // bookings.check_in_date
	CheckOutDate     time.Time  // bookings.check_out_date
	TotalCostCents   uint32     // bookings.total_cost_cents
	Payable          bool       // bookings.payable
	Status           string     // bookings.status
	ModificationType *string    // bookings.modification_type (nullable)
	ModificationDate *time.Time // bookings.modification_date (nullable)
	CreatedAt        time.Time  // bookings.created_at
	UpdatedAt        time.Time  // bookings.updated_at
}

// BookingModification is one row of the append-only modification
// history.  The booking row keeps only the latest marker; this table
// keeps all of them.
//
// Fields:
//
//	ID        – primary key identifier.
//	BookingID – the modified booking.
//	Kind      – date_change, room_change or cancelled.
//	Detail    – free-form description of what changed (nullable).
//	CreatedAt – when the modification was recorded.
type BookingModification struct {
	ID        uint64    // booking_modifications.id
	BookingID uint64    // booking_modifications.booking_id
	Kind      string    // booking_modifications.kind
	Detail    *string   // booking_modifications.detail (nullable)
	CreatedAt time.Time // booking_modifications.created_at
}
