package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-accommodation/internal/dispatch"
	"github.com/iliyamo/event-accommodation/internal/model"
	"github.com/iliyamo/event-accommodation/internal/repository"
)

// NotificationHandler exposes the change-tracking endpoints: listing
// guests whose bookings changed since the reference point, recording
// and querying audit rows, and driving a full batch send.
type NotificationHandler struct {
	Events        *repository.EventRepo
	Bookings      *repository.BookingRepo
	Notifications *repository.NotificationRepo
	Dispatcher    *dispatch.Dispatcher
}

// NewNotificationHandler constructs a NotificationHandler.  All
// dependencies must be non-nil.
func NewNotificationHandler(events *repository.EventRepo, bookings *repository.BookingRepo,
	notifications *repository.NotificationRepo, d *dispatch.Dispatcher) *NotificationHandler {
	if events == nil || bookings == nil || notifications == nil || d == nil {
		panic("nil dependency passed to NewNotificationHandler")
	}
	return &NotificationHandler{Events: events, Bookings: bookings, Notifications: notifications, Dispatcher: d}
}

// GuestsWithChanges handles GET /v1/events/:id/guests-with-changes.
// Without an explicit ?since= the reference point is resolved the same
// way a batch send would resolve it, so the preview matches what a
// send would actually deliver.
func (h *NotificationHandler) GuestsWithChanges(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var since time.Time
	synthetic := false
	if raw := c.QueryParam("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid since, expected RFC3339"})
		}
		since = since.UTC()
	} else {
		ref, err := h.Dispatcher.ReferenceTimestamp(ctx, eventID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve reference point"})
		}
		since = ref.Timestamp
		synthetic = ref.Synthetic
	}

	changed, err := h.Bookings.ChangedSince(ctx, eventID, since)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load changed bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reference_timestamp": since.UTC().Format(time.RFC3339),
		"synthetic_reference": synthetic,
		"count":               len(changed),
		"guests":              changed,
	})
}

// LastNotification handles GET /v1/email-notifications/last.  When no
// row exists a MOCK notification dated at the event start is
// synthesized so callers always get a usable reference point; the
// synthetic row is never persisted.
func (h *NotificationHandler) LastNotification(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.QueryParam("event_id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	var guestID *uint64
	if raw := c.QueryParam("guest_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest_id"})
		}
		guestID = &id
	}

	ctx := c.Request().Context()
	n, err := h.Notifications.LastForGuest(ctx, eventID, guestID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if n == nil {
		event, err := h.Events.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrEventNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		n = &model.EmailNotification{
			EventID: eventID,
			GuestID: guestID,
			Type:    model.NotificationMock,
			Status:  model.NotificationSent,
			SentAt:  event.StartDate,
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":                n.ID,
		"event_id":          n.EventID,
		"guest_id":          n.GuestID,
		"booking_id":        n.BookingID,
		"notification_type": n.Type,
		"status":            n.Status,
		"status_id":         n.StatusID,
		"error_message":     n.ErrorMessage,
		"sent_at":           n.SentAt.UTC().Format(time.RFC3339),
	})
}

type appendNotificationReq struct {
	EventID      uint64  `json:"event_id"`
	GuestID      *uint64 `json:"guest_id"`
	BookingID    *uint64 `json:"booking_id"`
	Type         string  `json:"notification_type"`
	Status       string  `json:"status"`
	StatusID     *string `json:"status_id"`
	ErrorMessage *string `json:"error_message"`
}

// AppendNotification handles POST /v1/email-notifications.  The row is
// persisted whatever its status says; when the recorded status is
// failed the endpoint still answers 500 so automated callers treat the
// send attempt as unsuccessful even though the audit trail kept it.
func (h *NotificationHandler) AppendNotification(c echo.Context) error {
	var req appendNotificationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	switch req.Type {
	case model.NotificationIndividual, model.NotificationBulk, model.NotificationChanges, model.NotificationMock:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification_type"})
	}
	switch req.Status {
	case model.NotificationSent, model.NotificationFailed, model.NotificationPending:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	n := model.EmailNotification{
		EventID:      req.EventID,
		GuestID:      req.GuestID,
		BookingID:    req.BookingID,
		Type:         req.Type,
		Status:       req.Status,
		StatusID:     req.StatusID,
		ErrorMessage: req.ErrorMessage,
	}
	if err := h.Notifications.Insert(c.Request().Context(), &n); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record notification"})
	}
	if n.Status == model.NotificationFailed {
		return c.JSON(http.StatusInternalServerError, echo.Map{"id": n.ID, "status": n.Status})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": n.ID, "status": n.Status})
}

// SendChanges handles POST /v1/events/:id/notifications/send-changes.
// The batch runs synchronously and sequentially; individual failures
// do not abort the run.
func (h *NotificationHandler) SendChanges(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	summary, err := h.Dispatcher.DispatchChanges(ctx, eventID, func(p dispatch.Progress) {
		log.Printf("event %d: change emails %d sent, %d failed, %d remaining (%.0f%%)",
			eventID, p.Sent, p.Failed, p.Remaining, p.PercentComplete)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to dispatch change emails"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"sent":   summary.Sent,
		"failed": summary.Failed,
		"total":  summary.Total,
	})
}
