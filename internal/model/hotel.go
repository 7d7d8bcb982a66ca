package model

import "time"

// Hotel represents a partner property that accommodates event guests.
// A hotel owns zero or more room types and is linked to events via the
// `event_hotels` join table.  This struct corresponds to a row in the
// `hotels` table.
//
// Fields:
//
//	ID            – primary key identifier.
//	Name          – hotel name.
//	Area          – city area / district used for allocation.
//	Category      – free-form category label (e.g. "partner", "overflow").
//	Stars         – star rating (nil if unrated).
//	ContactEmail  – reservation desk email (nullable).
//	ContactPhone  – reservation desk phone (nullable).
//	AgreementFile – opaque reference to the signed agreement PDF in the
//	                external object store (nullable).
//	CreatedAt     – timestamp when the hotel was created.
//	UpdatedAt     – timestamp of last update.
type Hotel struct {
	ID            uint64    // hotels.id
	Name          string    // hotels.name
	Area          string    // hotels.area
	Category      string    // hotels.category
	Stars         *uint8    // hotels.stars (nullable)
	ContactEmail  *string   // hotels.contact_email (nullable)
	ContactPhone  *string   // hotels.contact_phone (nullable)
	AgreementFile *string   // hotels.agreement_file (nullable)
	CreatedAt     time.Time // hotels.created_at
	UpdatedAt     time.Time // hotels.updated_at
}
