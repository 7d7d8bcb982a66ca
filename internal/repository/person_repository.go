package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-accommodation/internal/model"
)

// PersonRepo provides data access to the people and people_details
// tables.  People originate from an external attendee roster and are
// upserted in bulk by the roster sync endpoint.
type PersonRepo struct {
	db *sql.DB
}

// NewPersonRepo returns a new PersonRepo bound to the provided database.
func NewPersonRepo(db *sql.DB) *PersonRepo {
	return &PersonRepo{db: db}
}

// DB exposes the underlying sql.DB for transaction control.
func (r *PersonRepo) DB() *sql.DB {
	return r.db
}

// GetByID retrieves a person with their details.  Missing details rows
// yield zero-valued fields.  Returns ErrPersonNotFound when the person
// row does not exist.
func (r *PersonRepo) GetByID(ctx context.Context, id uint64) (*model.Person, *model.PersonDetails, error) {
	const q = `SELECT p.id, p.roster_id, p.first_name, p.last_name, p.email, p.created_at, p.updated_at,
                      pd.group_id, pd.company, COALESCE(pd.will_not_attend, FALSE), pd.notes
               FROM people p
               LEFT JOIN people_details pd ON pd.person_id = p.id
               WHERE p.id = ?`
	var p model.Person
	var d model.PersonDetails
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.RosterID, &p.FirstName, &p.LastName, &p.Email,
		&p.CreatedAt, &p.UpdatedAt, &d.GroupID, &d.Company, &d.WillNotAttend, &d.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrPersonNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	d.PersonID = p.ID
	return &p, &d, nil
}

// RosterEntry is one attendee as delivered by the external roster.
type RosterEntry struct {
	RosterID      string  `json:"roster_id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Email         string  `json:"email"`
	GroupID       *uint64 `json:"group_id"`
	Company       *string `json:"company"`
	WillNotAttend bool    `json:"will_not_attend"`
	Notes         *string `json:"notes"`
}

// SyncRosterTx upserts roster entries into people/people_details and
// links each person to the event.  Rows are keyed by the external
// roster id so re-running a sync is idempotent.  The caller owns the
// transaction, making the whole sync all-or-nothing.  It returns the
// number of entries processed.
func (r *PersonRepo) SyncRosterTx(ctx context.Context, tx *sql.Tx, eventID uint64, entries []RosterEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	const upsertPerson = `INSERT INTO people (roster_id, first_name, last_name, email)
                          VALUES (?, ?, ?, ?)
                          ON DUPLICATE KEY UPDATE first_name = VALUES(first_name),
                                                  last_name = VALUES(last_name),
                                                  email = VALUES(email),
                                                  updated_at = UTC_TIMESTAMP()`
	const selectID = `SELECT id FROM people WHERE roster_id = ?`
	const upsertDetails = `INSERT INTO people_details (person_id, group_id, company, will_not_attend, notes)
                           VALUES (?, ?, ?, ?, ?)
                           ON DUPLICATE KEY UPDATE group_id = VALUES(group_id),
                                                   company = VALUES(company),
                                                   will_not_attend = VALUES(will_not_attend),
                                                   notes = VALUES(notes)`
	const linkEvent = `INSERT IGNORE INTO event_people (event_id, person_id) VALUES (?, ?)`
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, upsertPerson, e.RosterID, e.FirstName, e.LastName, e.Email); err != nil {
			return 0, err
		}
		var personID uint64
		if err := tx.QueryRowContext(ctx, selectID, e.RosterID).Scan(&personID); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, upsertDetails, personID, e.GroupID, e.Company, e.WillNotAttend, e.Notes); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, linkEvent, eventID, personID); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// IsLinkedToEvent reports whether a person is attached to an event via
// the event_people join table.
func (r *PersonRepo) IsLinkedToEvent(ctx context.Context, eventID, personID uint64) (bool, error) {
	const q = `SELECT 1 FROM event_people WHERE event_id = ? AND person_id = ?`
	var one int
	err := r.db.QueryRowContext(ctx, q, eventID, personID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
