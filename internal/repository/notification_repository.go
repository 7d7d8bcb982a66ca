package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/event-accommodation/internal/model"
)

// NotificationRepo provides access to the append-only
// email_notifications audit table and the versioned notification
// markers that define the "changed since" boundary per event.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the
// provided database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// DB exposes the underlying sql.DB for transaction control.
func (r *NotificationRepo) DB() *sql.DB {
	return r.db
}

const notificationColumns = `id, guest_id, event_id, booking_id, notification_type, status, status_id, error_message, sent_at`

func scanNotification(scan func(dest ...any) error) (*model.EmailNotification, error) {
	var n model.EmailNotification
	err := scan(&n.ID, &n.GuestID, &n.EventID, &n.BookingID, &n.Type, &n.Status,
		&n.StatusID, &n.ErrorMessage, &n.SentAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Insert appends one audit record.  Rows are never updated or deleted;
// a failed send is recorded with status "failed" and the transport
// error message.
func (r *NotificationRepo) Insert(ctx context.Context, n *model.EmailNotification) error {
	const q = `INSERT INTO email_notifications (guest_id, event_id, booking_id, notification_type, status, status_id, error_message, sent_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	sentAt := n.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, q, n.GuestID, n.EventID, n.BookingID, n.Type, n.Status,
		n.StatusID, n.ErrorMessage, sentAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	n.SentAt = sentAt
	return nil
}

// LastBulk returns the most recent BULK-type notification of an event,
// the legacy reference point for change-tracking sends.  Returns
// sql.ErrNoRows wrapped as a nil record when none exists.
func (r *NotificationRepo) LastBulk(ctx context.Context, eventID uint64) (*model.EmailNotification, error) {
	const q = `SELECT ` + notificationColumns + ` FROM email_notifications
               WHERE event_id = ? AND notification_type = ? AND guest_id IS NULL
               ORDER BY sent_at DESC, id DESC LIMIT 1`
	n, err := scanNotification(r.db.QueryRowContext(ctx, q, eventID, model.NotificationBulk).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

// LastForGuest returns the most recent notification addressed to one
// guest within an event, or the most recent bulk record when guestID
// is nil.  A nil record with nil error means nothing was ever sent.
func (r *NotificationRepo) LastForGuest(ctx context.Context, eventID uint64, guestID *uint64) (*model.EmailNotification, error) {
	if guestID == nil {
		return r.LastBulk(ctx, eventID)
	}
	const q = `SELECT ` + notificationColumns + ` FROM email_notifications
               WHERE event_id = ? AND guest_id = ?
               ORDER BY sent_at DESC, id DESC LIMIT 1`
	n, err := scanNotification(r.db.QueryRowContext(ctx, q, eventID, *guestID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

// GetMarker loads the explicit reference point for an event.  A nil
// marker with nil error means no marker row exists yet.
func (r *NotificationRepo) GetMarker(ctx context.Context, eventID uint64) (*model.NotificationMarker, error) {
	const q = `SELECT event_id, reference_timestamp, version FROM notification_markers WHERE event_id = ?`
	var m model.NotificationMarker
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(&m.EventID, &m.ReferenceTimestamp, &m.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// AdvanceMarker moves the reference point forward via compare-and-swap
// on the version column.  expectedVersion 0 with no existing row
// inserts the first marker.  When the swap loses against a concurrent
// dispatch run it returns ErrStaleMarker and writes nothing.
func (r *NotificationRepo) AdvanceMarker(ctx context.Context, eventID uint64, to time.Time, expectedVersion uint64) error {
	ts := to.UTC().Format("2006-01-02 15:04:05")
	if expectedVersion == 0 {
		const ins = `INSERT INTO notification_markers (event_id, reference_timestamp, version) VALUES (?, ?, 1)`
		_, err := r.db.ExecContext(ctx, ins, eventID, ts)
		if isDuplicateKey(err) {
			return ErrStaleMarker
		}
		return err
	}
	const q = `UPDATE notification_markers SET reference_timestamp = ?, version = version + 1
               WHERE event_id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q, ts, eventID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleMarker
	}
	return nil
}

// isDuplicateKey detects a MySQL 1062 duplicate-entry error, which on
// the marker insert path means another dispatch run won the race.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
