package model

import "time"

// Person is a guest identity synced from the external attendee roster.
// People are linked to events via the `event_people` join table and
// carry allocation hints (stay-together group, attendance flag) in the
// companion `people_details` table.
//
// Fields:
//
//	ID        – primary key identifier.
//	RosterID  – identifier in the external roster, unique.
//	FirstName – given name.
//	LastName  – family name.
//	Email     – contact email used for booking notifications.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Person struct {
	ID        uint64    // people.id
	RosterID  string    // people.roster_id
	FirstName string    // people.first_name
	LastName  string    // people.last_name
	Email     string    // people.email
	CreatedAt time.Time // people.created_at
	UpdatedAt time.Time // people.updated_at
}

// PersonDetails holds allocation metadata for a person.  GroupID is a
// stay-together grouping used for allocation convenience only; it has
// no effect on capacity logic.
//
// Fields:
//
//	PersonID      – the person these details belong to.
//	GroupID       – stay-together group (nullable).
//	Company       – employer/organisation name (nullable).
//	WillNotAttend – guest has declined; excluded from allocation.
//	Notes         – free-text staff notes (nullable).
type PersonDetails struct {
	PersonID      uint64  // people_details.person_id
	GroupID       *uint64 // people_details.group_id (nullable)
	Company       *string // people_details.company (nullable)
	WillNotAttend bool    // people_details.will_not_attend
	Notes         *string // people_details.notes (nullable)
}
