// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingChangedEvent is published whenever a booking is created,
// modified or cancelled.  It carries enough information for downstream
// consumers to log, notify, or feed analytics without querying the
// primary database.
type BookingChangedEvent struct {
	BookingID      uint64 `json:"booking_id"`
	EventID        uint64 `json:"event_id"`
	GuestID        uint64 `json:"guest_id"`
	HotelName      string `json:"hotel_name"`
	RoomTypeName   string `json:"room_type_name"`
	Action         string `json:"action"` // created, modified, cancelled
	CheckInDate    string `json:"check_in_date"`
	CheckOutDate   string `json:"check_out_date"`
	TotalCostCents uint32 `json:"total_cost_cents"`
	OccurredAt     string `json:"occurred_at"`
}

// Action values for BookingChangedEvent.
const (
	ActionCreated   = "created"
	ActionModified  = "modified"
	ActionCancelled = "cancelled"
)
