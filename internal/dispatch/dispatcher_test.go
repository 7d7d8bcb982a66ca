package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-accommodation/internal/mailer"
	"github.com/iliyamo/event-accommodation/internal/model"
	"github.com/iliyamo/event-accommodation/internal/repository"
)

type fakeBookings struct {
	changed     []repository.ChangedBooking
	changedErr  error
	promoted    []uint64
	promoteErrs map[uint64]error
	sinceSeen   time.Time
}

func (f *fakeBookings) ChangedSince(_ context.Context, _ uint64, since time.Time) ([]repository.ChangedBooking, error) {
	f.sinceSeen = since
	return f.changed, f.changedErr
}

func (f *fakeBookings) PromoteToConfirmed(_ context.Context, bookingID uint64) error {
	if err := f.promoteErrs[bookingID]; err != nil {
		return err
	}
	f.promoted = append(f.promoted, bookingID)
	return nil
}

type fakeNotifications struct {
	inserted   []model.EmailNotification
	insertErr  error
	marker     *model.NotificationMarker
	lastBulk   *model.EmailNotification
	advancedTo *time.Time
	advanceVer uint64
	advanceErr error
}

func (f *fakeNotifications) Insert(_ context.Context, n *model.EmailNotification) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, *n)
	return nil
}

func (f *fakeNotifications) LastBulk(_ context.Context, _ uint64) (*model.EmailNotification, error) {
	return f.lastBulk, nil
}

func (f *fakeNotifications) GetMarker(_ context.Context, _ uint64) (*model.NotificationMarker, error) {
	return f.marker, nil
}

func (f *fakeNotifications) AdvanceMarker(_ context.Context, _ uint64, to time.Time, expectedVersion uint64) error {
	if f.advanceErr != nil {
		return f.advanceErr
	}
	f.advancedTo = &to
	f.advanceVer = expectedVersion
	return nil
}

type fakeEvents struct {
	event *model.Event
}

func (f *fakeEvents) GetByID(_ context.Context, _ uint64) (*model.Event, error) {
	if f.event == nil {
		return nil, repository.ErrEventNotFound
	}
	return f.event, nil
}

// failingSender fails for the addresses listed in failFor.
type failingSender struct {
	failFor map[string]bool
	sent    []string
}

func (s *failingSender) Send(_ context.Context, m mailer.Message) (mailer.Result, error) {
	if s.failFor[m.To] {
		return mailer.Result{}, errors.New("smtp 550 rejected")
	}
	s.sent = append(s.sent, m.To)
	return mailer.Result{MessageID: "msg-" + m.To}, nil
}

func changedBooking(id, guestID uint64, email, status string) repository.ChangedBooking {
	return repository.ChangedBooking{
		BookingID:      id,
		Status:         status,
		CheckInDate:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate:   time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC),
		TotalCostCents: 30000,
		GuestID:        guestID,
		GuestFirstName: "Ada",
		GuestLastName:  "Lovelace",
		GuestEmail:     email,
		HotelName:      "Grand Hotel",
		RoomTypeName:   "Double",
	}
}

func TestReferenceTimestamp_PrefersMarker(t *testing.T) {
	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d := NewDispatcher(&fakeBookings{}, &fakeNotifications{
		marker:   &model.NotificationMarker{EventID: 1, ReferenceTimestamp: ts, Version: 3},
		lastBulk: &model.EmailNotification{SentAt: ts.Add(-time.Hour)},
	}, &fakeEvents{event: &model.Event{ID: 1}}, &mailer.MockSender{})

	ref, err := d.ReferenceTimestamp(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ts, ref.Timestamp)
	assert.Equal(t, uint64(3), ref.Version)
	assert.False(t, ref.Synthetic)
}

func TestReferenceTimestamp_FallsBackToLastBulk(t *testing.T) {
	ts := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	d := NewDispatcher(&fakeBookings{}, &fakeNotifications{
		lastBulk: &model.EmailNotification{SentAt: ts},
	}, &fakeEvents{event: &model.Event{ID: 1}}, &mailer.MockSender{})

	ref, err := d.ReferenceTimestamp(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ts, ref.Timestamp)
	assert.Zero(t, ref.Version)
	assert.False(t, ref.Synthetic)
}

func TestReferenceTimestamp_SyntheticFromEventStart(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	d := NewDispatcher(&fakeBookings{}, &fakeNotifications{},
		&fakeEvents{event: &model.Event{ID: 1, StartDate: start}}, &mailer.MockSender{})

	ref, err := d.ReferenceTimestamp(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, start, ref.Timestamp)
	assert.True(t, ref.Synthetic)
}

func TestBuildJobs(t *testing.T) {
	jobs := BuildJobs([]repository.ChangedBooking{
		changedBooking(10, 100, "ada@example.com", model.BookingStatusPending),
		changedBooking(11, 101, "bob@example.com", model.BookingStatusConfirmed),
	})
	require.Len(t, jobs, 2)
	assert.True(t, jobs[0].Pending)
	assert.False(t, jobs[1].Pending)
	assert.Equal(t, "ada@example.com", jobs[0].Message.To)
	assert.Equal(t, "Your accommodation at Grand Hotel", jobs[0].Message.Subject)
	assert.Contains(t, jobs[0].Message.Body, "Check-in: 2026-06-01")
	assert.Contains(t, jobs[0].Message.Body, "300.00 EUR")
}

func TestSendBatch_ContinuesAfterFailure(t *testing.T) {
	bookings := &fakeBookings{}
	notifications := &fakeNotifications{}
	sender := &failingSender{failFor: map[string]bool{"bob@example.com": true}}
	d := NewDispatcher(bookings, notifications, &fakeEvents{event: &model.Event{ID: 1}}, sender)

	jobs := BuildJobs([]repository.ChangedBooking{
		changedBooking(10, 100, "ada@example.com", model.BookingStatusConfirmed),
		changedBooking(11, 101, "bob@example.com", model.BookingStatusConfirmed),
		changedBooking(12, 102, "eve@example.com", model.BookingStatusConfirmed),
	})
	sum, err := d.SendBatch(context.Background(), 1, Reference{}, jobs, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Sent)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, []string{"ada@example.com", "eve@example.com"}, sender.sent)
}

func TestSendBatch_RecordsEveryOutcome(t *testing.T) {
	notifications := &fakeNotifications{}
	sender := &failingSender{failFor: map[string]bool{"bob@example.com": true}}
	d := NewDispatcher(&fakeBookings{}, notifications, &fakeEvents{event: &model.Event{ID: 1}}, sender)

	jobs := BuildJobs([]repository.ChangedBooking{
		changedBooking(10, 100, "ada@example.com", model.BookingStatusConfirmed),
		changedBooking(11, 101, "bob@example.com", model.BookingStatusConfirmed),
	})
	_, err := d.SendBatch(context.Background(), 1, Reference{}, jobs, nil)
	require.NoError(t, err)

	// Two CHANGES rows plus the synthetic BULK marker row.
	require.Len(t, notifications.inserted, 3)

	ok := notifications.inserted[0]
	assert.Equal(t, model.NotificationChanges, ok.Type)
	assert.Equal(t, model.NotificationSent, ok.Status)
	require.NotNil(t, ok.StatusID)
	assert.Equal(t, "msg-ada@example.com", *ok.StatusID)

	failed := notifications.inserted[1]
	assert.Equal(t, model.NotificationFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Contains(t, *failed.ErrorMessage, "550")

	bulk := notifications.inserted[2]
	assert.Equal(t, model.NotificationBulk, bulk.Type)
	assert.Nil(t, bulk.GuestID)
}

func TestSendBatch_PromotesPendingAndAdvancesMarker(t *testing.T) {
	bookings := &fakeBookings{}
	notifications := &fakeNotifications{}
	d := NewDispatcher(bookings, notifications, &fakeEvents{event: &model.Event{ID: 1}}, &mailer.MockSender{})

	jobs := BuildJobs([]repository.ChangedBooking{
		changedBooking(10, 100, "ada@example.com", model.BookingStatusPending),
		changedBooking(11, 101, "bob@example.com", model.BookingStatusConfirmed),
	})
	sum, err := d.SendBatch(context.Background(), 1, Reference{Version: 4}, jobs, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Sent)
	assert.Equal(t, []uint64{10}, bookings.promoted)
	require.NotNil(t, notifications.advancedTo)
	assert.Equal(t, uint64(4), notifications.advanceVer)
}

func TestSendBatch_NoSendsLeavesMarkerAlone(t *testing.T) {
	notifications := &fakeNotifications{}
	sender := &failingSender{failFor: map[string]bool{"ada@example.com": true}}
	d := NewDispatcher(&fakeBookings{}, notifications, &fakeEvents{event: &model.Event{ID: 1}}, sender)

	jobs := BuildJobs([]repository.ChangedBooking{
		changedBooking(10, 100, "ada@example.com", model.BookingStatusPending),
	})
	sum, err := d.SendBatch(context.Background(), 1, Reference{}, jobs, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Sent)
	assert.Nil(t, notifications.advancedTo)
	// The failed attempt is still on the audit trail, but no BULK row.
	require.Len(t, notifications.inserted, 1)
	assert.Equal(t, model.NotificationChanges, notifications.inserted[0].Type)
}

func TestSendBatch_StaleMarkerIsNotAnError(t *testing.T) {
	notifications := &fakeNotifications{advanceErr: repository.ErrStaleMarker}
	d := NewDispatcher(&fakeBookings{}, notifications, &fakeEvents{event: &model.Event{ID: 1}}, &mailer.MockSender{})

	jobs := BuildJobs([]repository.ChangedBooking{
		changedBooking(10, 100, "ada@example.com", model.BookingStatusConfirmed),
	})
	sum, err := d.SendBatch(context.Background(), 1, Reference{Version: 1}, jobs, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sent)
}

func TestSendBatch_PromotionFailureDoesNotAbort(t *testing.T) {
	bookings := &fakeBookings{promoteErrs: map[uint64]error{10: errors.New("deadlock")}}
	notifications := &fakeNotifications{}
	d := NewDispatcher(bookings, notifications, &fakeEvents{event: &model.Event{ID: 1}}, &mailer.MockSender{})

	jobs := BuildJobs([]repository.ChangedBooking{
		changedBooking(10, 100, "ada@example.com", model.BookingStatusPending),
		changedBooking(11, 101, "bob@example.com", model.BookingStatusPending),
	})
	sum, err := d.SendBatch(context.Background(), 1, Reference{}, jobs, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Sent)
	assert.Equal(t, []uint64{11}, bookings.promoted)
	require.NotNil(t, notifications.advancedTo)
}

func TestSendBatch_ProgressCallback(t *testing.T) {
	sender := &failingSender{failFor: map[string]bool{"bob@example.com": true}}
	d := NewDispatcher(&fakeBookings{}, &fakeNotifications{}, &fakeEvents{event: &model.Event{ID: 1}}, sender)

	jobs := BuildJobs([]repository.ChangedBooking{
		changedBooking(10, 100, "ada@example.com", model.BookingStatusConfirmed),
		changedBooking(11, 101, "bob@example.com", model.BookingStatusConfirmed),
		changedBooking(12, 102, "eve@example.com", model.BookingStatusConfirmed),
		changedBooking(13, 103, "kim@example.com", model.BookingStatusConfirmed),
	})
	var seen []Progress
	_, err := d.SendBatch(context.Background(), 1, Reference{}, jobs, func(p Progress) {
		seen = append(seen, p)
	})
	require.NoError(t, err)
	require.Len(t, seen, 4)
	assert.Equal(t, Progress{Sent: 1, Failed: 0, Remaining: 3, PercentComplete: 25}, seen[0])
	assert.Equal(t, Progress{Sent: 1, Failed: 1, Remaining: 2, PercentComplete: 50}, seen[1])
	assert.Equal(t, Progress{Sent: 3, Failed: 1, Remaining: 0, PercentComplete: 100}, seen[3])
}

func TestDispatchChanges_UsesResolvedReference(t *testing.T) {
	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	bookings := &fakeBookings{changed: []repository.ChangedBooking{
		changedBooking(10, 100, "ada@example.com", model.BookingStatusConfirmed),
	}}
	notifications := &fakeNotifications{
		marker: &model.NotificationMarker{EventID: 1, ReferenceTimestamp: ts, Version: 2},
	}
	d := NewDispatcher(bookings, notifications, &fakeEvents{event: &model.Event{ID: 1}}, &mailer.MockSender{})

	sum, err := d.DispatchChanges(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, ts, bookings.sinceSeen)
	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, uint64(2), notifications.advanceVer)
}

func TestDispatchChanges_EmptyBatch(t *testing.T) {
	notifications := &fakeNotifications{
		marker: &model.NotificationMarker{EventID: 1, ReferenceTimestamp: time.Now().UTC(), Version: 1},
	}
	d := NewDispatcher(&fakeBookings{}, notifications, &fakeEvents{event: &model.Event{ID: 1}}, &mailer.MockSender{})

	sum, err := d.DispatchChanges(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Sent: 0, Failed: 0, Total: 0}, sum)
	assert.Nil(t, notifications.advancedTo)
	assert.Empty(t, notifications.inserted)
}
