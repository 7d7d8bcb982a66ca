// Package dispatch implements the change-tracking notification
// dispatcher: it finds bookings changed since the event's reference
// point, emails each guest exactly once per batch, records every
// outcome on the audit trail and advances the reference point only
// after a successful batch.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/event-accommodation/internal/mailer"
	"github.com/iliyamo/event-accommodation/internal/model"
	"github.com/iliyamo/event-accommodation/internal/repository"
)

// BookingStore is the slice of the booking repository the dispatcher
// needs.  *repository.BookingRepo satisfies it.
type BookingStore interface {
	ChangedSince(ctx context.Context, eventID uint64, since time.Time) ([]repository.ChangedBooking, error)
	PromoteToConfirmed(ctx context.Context, bookingID uint64) error
}

// NotificationStore is the slice of the notification repository the
// dispatcher needs.  *repository.NotificationRepo satisfies it.
type NotificationStore interface {
	Insert(ctx context.Context, n *model.EmailNotification) error
	LastBulk(ctx context.Context, eventID uint64) (*model.EmailNotification, error)
	GetMarker(ctx context.Context, eventID uint64) (*model.NotificationMarker, error)
	AdvanceMarker(ctx context.Context, eventID uint64, to time.Time, expectedVersion uint64) error
}

// EventStore resolves events.  *repository.EventRepo satisfies it.
type EventStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
}

// EmailJob is one queued guest email within a batch.
type EmailJob struct {
	BookingID uint64
	GuestID   uint64
	Message   mailer.Message
	// Pending marks bookings that should be promoted to confirmed
	// after a successful send.
	Pending bool
}

// Progress is reported through the callback after every processed job.
type Progress struct {
	Sent            int     `json:"sent"`
	Failed          int     `json:"failed"`
	Remaining       int     `json:"remaining"`
	PercentComplete float64 `json:"percent_complete"`
}

// Summary is the final tally of one batch.
type Summary struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Reference is the resolved "changed since" boundary for an event.
// Synthetic references come from the event start date when nothing was
// ever sent; they are reported as MOCK and never persisted.
type Reference struct {
	Timestamp time.Time
	Version   uint64
	Synthetic bool
}

// Dispatcher wires the stores and the mail sender together.  Batches
// run strictly sequentially; the only suspension points are the email
// send and the audit write.
type Dispatcher struct {
	Bookings      BookingStore
	Notifications NotificationStore
	Events        EventStore
	Sender        mailer.Sender
}

// NewDispatcher constructs a Dispatcher.  All dependencies must be
// non-nil.
func NewDispatcher(bookings BookingStore, notifications NotificationStore, events EventStore, sender mailer.Sender) *Dispatcher {
	if bookings == nil || notifications == nil || events == nil || sender == nil {
		panic("nil dependency passed to NewDispatcher")
	}
	return &Dispatcher{Bookings: bookings, Notifications: notifications, Events: events, Sender: sender}
}

// ReferenceTimestamp resolves the boundary for "send updates since the
// last bulk email".  Preference order: the explicit versioned marker,
// then the latest BULK audit row, then the event start date (synthetic).
func (d *Dispatcher) ReferenceTimestamp(ctx context.Context, eventID uint64) (Reference, error) {
	m, err := d.Notifications.GetMarker(ctx, eventID)
	if err != nil {
		return Reference{}, err
	}
	if m != nil {
		return Reference{Timestamp: m.ReferenceTimestamp, Version: m.Version}, nil
	}
	last, err := d.Notifications.LastBulk(ctx, eventID)
	if err != nil {
		return Reference{}, err
	}
	if last != nil {
		return Reference{Timestamp: last.SentAt}, nil
	}
	ev, err := d.Events.GetByID(ctx, eventID)
	if err != nil {
		return Reference{}, err
	}
	return Reference{Timestamp: ev.StartDate, Synthetic: true}, nil
}

// BuildJobs turns changed bookings into email jobs, in the order the
// store returned them.
func BuildJobs(changed []repository.ChangedBooking) []EmailJob {
	jobs := make([]EmailJob, 0, len(changed))
	for _, cb := range changed {
		jobs = append(jobs, EmailJob{
			BookingID: cb.BookingID,
			GuestID:   cb.GuestID,
			Pending:   cb.Status == model.BookingStatusPending,
			Message: mailer.Message{
				To:      cb.GuestEmail,
				ToName:  fmt.Sprintf("%s %s", cb.GuestFirstName, cb.GuestLastName),
				Subject: fmt.Sprintf("Your accommodation at %s", cb.HotelName),
				Body: fmt.Sprintf(
					"Dear %s,\n\nyour booking has been updated.\n\nHotel: %s\nRoom: %s\nCheck-in: %s\nCheck-out: %s\nTotal: %.2f EUR\n",
					cb.GuestFirstName, cb.HotelName, cb.RoomTypeName,
					cb.CheckInDate.Format("2006-01-02"), cb.CheckOutDate.Format("2006-01-02"),
					float64(cb.TotalCostCents)/100,
				),
			},
		})
	}
	return jobs
}

// SendBatch processes the jobs one after another.  A failed send never
// halts the batch; every outcome is written to the audit trail and the
// progress callback fires after every job.  After a batch with at
// least one successful send, pending bookings are promoted one at a
// time (promotion failures are logged, not fatal) and the reference
// point is advanced: a synthetic BULK audit row plus a compare-and-swap
// on the marker using ref.Version.
func (d *Dispatcher) SendBatch(ctx context.Context, eventID uint64, ref Reference, jobs []EmailJob, onProgress func(Progress)) (Summary, error) {
	sum := Summary{Total: len(jobs)}
	var promote []uint64
	for i, job := range jobs {
		n := model.EmailNotification{
			EventID: eventID,
			Type:    model.NotificationChanges,
			SentAt:  time.Now().UTC(),
		}
		guestID, bookingID := job.GuestID, job.BookingID
		n.GuestID, n.BookingID = &guestID, &bookingID

		res, sendErr := d.Sender.Send(ctx, job.Message)
		if sendErr != nil {
			sum.Failed++
			msg := sendErr.Error()
			n.Status = model.NotificationFailed
			n.ErrorMessage = &msg
		} else {
			sum.Sent++
			n.Status = model.NotificationSent
			if res.MessageID != "" {
				n.StatusID = &res.MessageID
			}
			if job.Pending {
				promote = append(promote, job.BookingID)
			}
		}
		if err := d.Notifications.Insert(ctx, &n); err != nil {
			// The audit row is the record of truth; losing it is worth
			// a log line, but the batch still continues.
			log.Printf("dispatch: record outcome for booking %d failed: %v", job.BookingID, err)
		}
		if onProgress != nil {
			onProgress(Progress{
				Sent:            sum.Sent,
				Failed:          sum.Failed,
				Remaining:       len(jobs) - i - 1,
				PercentComplete: float64(i+1) / float64(len(jobs)) * 100,
			})
		}
	}

	if sum.Sent == 0 {
		return sum, nil
	}

	for _, id := range promote {
		if err := d.Bookings.PromoteToConfirmed(ctx, id); err != nil {
			log.Printf("dispatch: promote booking %d failed: %v", id, err)
		}
	}

	now := time.Now().UTC()
	bulk := model.EmailNotification{
		EventID: eventID,
		Type:    model.NotificationBulk,
		Status:  model.NotificationSent,
		SentAt:  now,
	}
	if err := d.Notifications.Insert(ctx, &bulk); err != nil {
		return sum, fmt.Errorf("write bulk marker record: %w", err)
	}
	if err := d.Notifications.AdvanceMarker(ctx, eventID, now, ref.Version); err != nil {
		if errors.Is(err, repository.ErrStaleMarker) {
			log.Printf("dispatch: marker for event %d advanced by a concurrent run", eventID)
			return sum, nil
		}
		return sum, fmt.Errorf("advance marker: %w", err)
	}
	return sum, nil
}

// DispatchChanges is the full staff-triggered flow: resolve the
// reference point, load the changed bookings, send the batch.
func (d *Dispatcher) DispatchChanges(ctx context.Context, eventID uint64, onProgress func(Progress)) (Summary, error) {
	ref, err := d.ReferenceTimestamp(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	changed, err := d.Bookings.ChangedSince(ctx, eventID, ref.Timestamp)
	if err != nil {
		return Summary{}, err
	}
	return d.SendBatch(ctx, eventID, ref, BuildJobs(changed), onProgress)
}
