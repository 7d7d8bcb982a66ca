package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-accommodation/internal/availability"
	"github.com/iliyamo/event-accommodation/internal/model"
	"github.com/iliyamo/event-accommodation/internal/repository"
)

// AvailabilityHandler serves the per-date availability grid and the
// staff edits to override rows.  The grid is the net view: overrides
// overlaid on room-type defaults minus active bookings.  Negative
// values are surfaced as-is when staff edited an override below what
// is already booked.
type AvailabilityHandler struct {
	RoomTypes    *repository.RoomTypeRepo
	Availability *repository.AvailabilityRepo
	Bookings     *repository.BookingRepo
}

// NewAvailabilityHandler constructs an AvailabilityHandler.  All
// dependencies must be non-nil.
func NewAvailabilityHandler(roomTypes *repository.RoomTypeRepo, avail *repository.AvailabilityRepo, bookings *repository.BookingRepo) *AvailabilityHandler {
	if roomTypes == nil || avail == nil || bookings == nil {
		panic("nil repository passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{RoomTypes: roomTypes, Availability: avail, Bookings: bookings}
}

// GetAvailability handles GET /v1/hotels/:hotelID/room-types/:id/availability.  Both
// start_date and end_date are required, inclusive, in "2006-01-02"
// form.  Dates without an override row silently fall back to the room
// type defaults; spanning past the override horizon is never an error.
func (h *AvailabilityHandler) GetAvailability(c echo.Context) error {
	roomTypeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room type id"})
	}
	start, err := parseDate(c.QueryParam("start_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
	}
	end, err := parseDate(c.QueryParam("end_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date before start_date"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypes.GetByID(ctx, roomTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomTypeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	overrides, err := h.Availability.ListRange(ctx, roomTypeID, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
	}
	booked, err := h.Bookings.CountActivePerDate(ctx, roomTypeID, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	days := availability.Resolve(*rt, overrides, booked, start, end)
	return c.JSON(http.StatusOK, echo.Map{"items": days})
}

type availabilityUpdate struct {
	Date           string `json:"date"`
	AvailableRooms int32  `json:"available_rooms"`
	PriceCents     int64  `json:"price_per_night_cents"`
}

// validateUpdate checks one override edit against the room type's
// ceiling.  available_rooms must stay inside [0, total_rooms] and the
// price must not be negative.
func validateUpdate(rt *model.RoomType, u availabilityUpdate) (time.Time, string) {
	d, err := parseDate(u.Date)
	if err != nil {
		return time.Time{}, "invalid date"
	}
	if u.AvailableRooms < 0 || u.AvailableRooms > int32(rt.TotalRooms) {
		return time.Time{}, "available_rooms out of range"
	}
	if u.PriceCents < 0 {
		return time.Time{}, "negative price"
	}
	return d, ""
}

// UpsertAvailability handles PUT /v1/hotels/:hotelID/room-types/:id/availability.  It
// writes a single override row after validating the ranges.
func (h *AvailabilityHandler) UpsertAvailability(c echo.Context) error {
	roomTypeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room type id"})
	}
	var body availabilityUpdate
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypes.GetByID(ctx, roomTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomTypeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	d, msg := validateUpdate(rt, body)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ra := model.RoomAvailability{
		RoomTypeID:     roomTypeID,
		Date:           d,
		AvailableRooms: body.AvailableRooms,
		PriceCents:     uint32(body.PriceCents),
	}
	if err := h.Availability.Upsert(ctx, &ra); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": 1})
}

// UpsertAvailabilityBatch handles PUT /v1/hotels/:hotelID/room-types/:id/availability/batch.
// Every update is validated before any write; the writes then run in
// one transaction so the batch is all-or-nothing.
func (h *AvailabilityHandler) UpsertAvailabilityBatch(c echo.Context) error {
	roomTypeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room type id"})
	}
	var body struct {
		Updates []availabilityUpdate `json:"updates"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "updates is required"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypes.GetByID(ctx, roomTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomTypeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rows := make([]model.RoomAvailability, 0, len(body.Updates))
	for _, u := range body.Updates {
		d, msg := validateUpdate(rt, u)
		if msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "date": u.Date})
		}
		rows = append(rows, model.RoomAvailability{
			RoomTypeID:     roomTypeID,
			Date:           d,
			AvailableRooms: u.AvailableRooms,
			PriceCents:     uint32(u.PriceCents),
		})
	}

	tx, err := h.Availability.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Availability.UpsertBatchTx(ctx, tx, rows); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save availability"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"updated": len(rows)})
}
