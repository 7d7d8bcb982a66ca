package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-accommodation/internal/availability"
	"github.com/iliyamo/event-accommodation/internal/model"
	"github.com/iliyamo/event-accommodation/internal/queue"
	"github.com/iliyamo/event-accommodation/internal/repository"
	queue_publisher "github.com/iliyamo/event-accommodation/internal/service"
)

// BookingHandler groups the repositories required for the booking
// lifecycle: creation against inventory, modification, cancellation
// (single and by company) and cost recalculation.  Critical DB
// operations run inside a transaction; the capacity check holds a row
// lock on the room type so two bookings for the same last room cannot
// both pass.
type BookingHandler struct {
	Events       *repository.EventRepo
	People       *repository.PersonRepo
	Hotels       *repository.HotelRepo
	RoomTypes    *repository.RoomTypeRepo
	Availability *repository.AvailabilityRepo
	Bookings     *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies
// must be non-nil.
func NewBookingHandler(events *repository.EventRepo, people *repository.PersonRepo, hotels *repository.HotelRepo,
	roomTypes *repository.RoomTypeRepo, avail *repository.AvailabilityRepo, bookings *repository.BookingRepo) *BookingHandler {
	if events == nil || people == nil || hotels == nil || roomTypes == nil || avail == nil || bookings == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{
		Events:       events,
		People:       people,
		Hotels:       hotels,
		RoomTypes:    roomTypes,
		Availability: avail,
		Bookings:     bookings,
	}
}

type createBookingReq struct {
	EventID        uint64 `json:"event_id"`
	PersonID       uint64 `json:"person_id"`
	RoomTypeID     uint64 `json:"room_type_id"`
	CheckInDate    string `json:"check_in_date"`
	CheckOutDate   string `json:"check_out_date"`
	TotalCostCents uint32 `json:"total_cost_cents"`
	Payable        bool   `json:"payable"`
}

// CreateBooking handles POST /v1/bookings.  It validates the request,
// verifies the relations (person and hotel linked to the event),
// checks capacity under a room-type row lock and inserts the booking
// as pending.  A zero total cost is recomputed server-side from the
// then-current nightly prices.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.EventID == 0 || req.PersonID == 0 || req.RoomTypeID == 0 || req.CheckInDate == "" || req.CheckOutDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
	}
	checkIn, err := parseDate(req.CheckInDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in_date"})
	}
	checkOut, err := parseDate(req.CheckOutDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out_date"})
	}
	if !checkIn.Before(checkOut) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out_date must be after check_in_date"})
	}

	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, req.EventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	person, _, err := h.People.GetByID(ctx, req.PersonID)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if linked, err := h.People.IsLinkedToEvent(ctx, req.EventID, req.PersonID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	} else if !linked {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "person is not attending this event"})
	}

	rtPlain, err := h.RoomTypes.GetByID(ctx, req.RoomTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomTypeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hotel, err := h.Hotels.GetByID(ctx, rtPlain.HotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if linked, err := h.Events.HotelLinked(ctx, req.EventID, hotel.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	} else if !linked {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hotel does not serve this event"})
	}

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the room type row for the duration of the check-and-insert.
	rt, err := h.RoomTypes.GetByIDForUpdateTx(ctx, tx, req.RoomTypeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	lastNight := checkOut.AddDate(0, 0, -1)
	overrides, err := h.Availability.ListRangeTx(ctx, tx, rt.ID, checkIn, lastNight)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
	}
	booked, err := h.Bookings.CountActivePerDateTx(ctx, tx, rt.ID, checkIn, lastNight)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	if ok, full := availability.HasCapacity(*rt, overrides, booked, checkIn, checkOut); !ok {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": repository.ErrCapacityExceeded.Error(),
			"date":  full.Format("2006-01-02"),
		})
	}

	cost := req.TotalCostCents
	if cost == 0 {
		cost = availability.StayCost(*rt, overrides, checkIn, checkOut)
	}
	b := model.Booking{
		EventID:        req.EventID,
		PersonID:       req.PersonID,
		RoomTypeID:     rt.ID,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		TotalCostCents: cost,
		Payable:        req.Payable,
	}
	if err := h.Bookings.CreateTx(ctx, tx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	// Best effort: the booking exists even if the broker is down.
	_ = queue_publisher.PublishBookingChanged(ctx, queue.BookingChangedEvent{
		BookingID:      b.ID,
		EventID:        b.EventID,
		GuestID:        b.PersonID,
		HotelName:      hotel.Name,
		RoomTypeName:   rt.Name,
		Action:         queue.ActionCreated,
		CheckInDate:    b.CheckInDate.Format("2006-01-02"),
		CheckOutDate:   b.CheckOutDate.Format("2006-01-02"),
		TotalCostCents: b.TotalCostCents,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":       b.ID,
		"status":           b.Status,
		"hotel_name":       hotel.Name,
		"room_type_name":   rt.Name,
		"guest_name":       person.FirstName + " " + person.LastName,
		"check_in_date":    b.CheckInDate.Format("2006-01-02"),
		"check_out_date":   b.CheckOutDate.Format("2006-01-02"),
		"total_cost_cents": b.TotalCostCents,
	})
}

type updateBookingReq struct {
	RoomTypeID     uint64 `json:"room_type_id"`
	CheckInDate    string `json:"check_in_date"`
	CheckOutDate   string `json:"check_out_date"`
	TotalCostCents uint32 `json:"total_cost_cents"`
}

// UpdateBooking handles PUT /v1/bookings/:id.  It overwrites the room
// type, dates and cost, stamping the modification marker with
// room_change when the room type differs and date_change otherwise,
// and appends to the modification history.
func (h *BookingHandler) UpdateBooking(c echo.Context) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req updateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.RoomTypeID == 0 || req.CheckInDate == "" || req.CheckOutDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
	}
	checkIn, err := parseDate(req.CheckInDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in_date"})
	}
	checkOut, err := parseDate(req.CheckOutDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out_date"})
	}
	if !checkIn.Before(checkOut) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out_date must be after check_in_date"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypes.GetByID(ctx, req.RoomTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomTypeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetByIDForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	modType := model.ModificationDateChange
	if b.RoomTypeID != req.RoomTypeID {
		modType = model.ModificationRoomChange
	}
	b.RoomTypeID = req.RoomTypeID
	b.CheckInDate = checkIn
	b.CheckOutDate = checkOut
	b.TotalCostCents = req.TotalCostCents
	if err := h.Bookings.OverwriteTx(ctx, tx, b, modType); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
	}
	if err := h.Bookings.AppendModificationTx(ctx, tx, b.ID, modType, nil); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record modification"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	_ = queue_publisher.PublishBookingChanged(ctx, queue.BookingChangedEvent{
		BookingID:      b.ID,
		EventID:        b.EventID,
		GuestID:        b.PersonID,
		RoomTypeName:   rt.Name,
		Action:         queue.ActionModified,
		CheckInDate:    checkIn.Format("2006-01-02"),
		CheckOutDate:   checkOut.Format("2006-01-02"),
		TotalCostCents: req.TotalCostCents,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":        b.ID,
		"modification_type": modType,
	})
}

// CancelBooking handles POST /v1/bookings/:id/cancel.  The status
// transition table decides whether the cancellation is legal; inventory
// is implicitly freed because cancelled bookings are excluded from the
// availability subtraction.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Bookings.TransitionStatusTx(ctx, tx, bookingID, model.BookingStatusCancelled, model.ModificationCancelled); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking cannot be cancelled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
		}
	}
	// Record who cancelled when the request carries an authenticated
	// staff identity; unauthenticated callers (internal tooling) leave
	// the detail empty.
	var detail *string
	if staffID, err := getUserID(c); err == nil {
		d := fmt.Sprintf("cancelled by staff #%d", staffID)
		detail = &d
	}
	if err := h.Bookings.AppendModificationTx(ctx, tx, bookingID, model.ModificationCancelled, detail); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record modification"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"booking_id": bookingID, "status": model.BookingStatusCancelled})
}

// CancelByCompany handles POST /v1/events/:id/bookings/cancel-by-company.
// It flips every active booking of the event whose guest works for the
// given company, all inside one transaction, and returns the count.
func (h *BookingHandler) CancelByCompany(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		Company string `json:"company"`
	}
	if err := c.Bind(&body); err != nil || body.Company == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company is required"})
	}

	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	n, err := h.Bookings.CancelByCompanyTx(ctx, tx, eventID, body.Company)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel bookings"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"cancelled_count": n})
}

// RecalculateBookings handles
// POST /v1/hotels/:hotelID/room-types/:id/recalculate-bookings.  After
// bulk price edits, every active booking of the room type gets its
// total cost re-derived from the then-current nightly prices, in one
// transaction.
func (h *BookingHandler) RecalculateBookings(c echo.Context) error {
	hotelID, err := pathID(c, "hotelID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	roomTypeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room type id"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypes.GetByID(ctx, roomTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomTypeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if rt.HotelID != hotelID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
	}

	bookings, err := h.Bookings.ActiveByRoomType(ctx, roomTypeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	if len(bookings) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"updated_bookings": 0})
	}

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	updated := 0
	for _, b := range bookings {
		overrides, err := h.Availability.ListRangeTx(ctx, tx, roomTypeID, b.CheckInDate, b.CheckOutDate.AddDate(0, 0, -1))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
		}
		cost := availability.StayCost(*rt, overrides, b.CheckInDate, b.CheckOutDate)
		if cost == b.TotalCostCents {
			continue
		}
		if err := h.Bookings.UpdateCostTx(ctx, tx, b.ID, cost); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking cost"})
		}
		updated++
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"updated_bookings": updated})
}
