package model

import "time"

// Email notification types.  BULK rows double as the legacy reference
// point for change-tracking sends; MOCK marks a synthesized reference
// that was never persisted.
const (
	NotificationIndividual = "INDIVIDUAL"
	NotificationBulk       = "BULK"
	NotificationChanges    = "CHANGES"
	NotificationMock       = "MOCK"
)

// Email notification statuses.
const (
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationPending = "pending"
)

// EmailNotification is an immutable audit record of one send attempt.
// A nil GuestID marks a bulk/reference-point record rather than a
// guest-addressed email.
//
// Fields:
//
//	ID           – primary key identifier.
//	GuestID      – addressed guest, nil for bulk markers.
//	EventID      – event context of the send.
//	BookingID    – booking the email concerns, nil for bulk markers.
//	Type         – INDIVIDUAL, BULK, CHANGES or MOCK.
//	Status       – sent, failed or pending.
//	StatusID     – provider-side message identifier (nullable).
//	ErrorMessage – provider/transport error on failure (nullable).
//	SentAt       – when the attempt happened.
type EmailNotification struct {
	ID           uint64    // email_notifications.id
	GuestID      *uint64   // email_notifications.guest_id (nullable)
	EventID      uint64    // email_notifications.event_id
	BookingID    *uint64   // email_notifications.booking_id (nullable)
	Type         string    // email_notifications.notification_type
	Status       string    // email_notifications.status
	StatusID     *string   // email_notifications.status_id (nullable)
	ErrorMessage *string   // email_notifications.error_message (nullable)
	SentAt       time.Time // email_notifications.sent_at
}

// NotificationMarker is the explicit, versioned reference point for
// change-tracking sends.  One row per event; updates go through a
// compare-and-swap on Version so two overlapping dispatch runs cannot
// both advance the marker.
//
// Fields:
//
//	EventID            – the event this marker belongs to (unique).
//	ReferenceTimestamp – the "since" boundary for the next send.
//	Version            – CAS counter, incremented on every advance.
type NotificationMarker struct {
	EventID            uint64    // notification_markers.event_id
	ReferenceTimestamp time.Time // notification_markers.reference_timestamp
	Version            uint64    // notification_markers.version
}
