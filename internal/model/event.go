package model

import "time"

// Event is a conference or similar gathering whose attendees are
// accommodated through this service.  Hotels and people are attached
// via the `event_hotels` and `event_people` join tables.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – event name.
//	StartDate – first event day; used as the synthetic notification
//	            reference point when no bulk send has happened yet.
//	EndDate   – last event day.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Event struct {
	ID        uint64    // events.id
	Name      string    // events.name
	StartDate time.Time // events.start_date
	EndDate   time.Time // events.end_date
	CreatedAt time.Time // events.created_at
	UpdatedAt time.Time // events.updated_at
}
