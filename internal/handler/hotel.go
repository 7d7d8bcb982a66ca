package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-accommodation/internal/model"
	"github.com/iliyamo/event-accommodation/internal/repository"
)

// HotelHandler manages hotels and their room types, including the
// cascading deletions and the availability horizon seeded for new room
// types.
type HotelHandler struct {
	Hotels    *repository.HotelRepo
	RoomTypes *repository.RoomTypeRepo
	Events    *repository.EventRepo

	// AvailabilityDays is how far ahead a new room type gets seeded
	// availability rows.
	AvailabilityDays int
}

// NewHotelHandler constructs a HotelHandler.  All repositories must be
// non-nil; availabilityDays must be positive.
func NewHotelHandler(hotels *repository.HotelRepo, roomTypes *repository.RoomTypeRepo, events *repository.EventRepo, availabilityDays int) *HotelHandler {
	if hotels == nil || roomTypes == nil || events == nil {
		panic("nil repository passed to NewHotelHandler")
	}
	if availabilityDays <= 0 {
		panic("availabilityDays must be positive")
	}
	return &HotelHandler{Hotels: hotels, RoomTypes: roomTypes, Events: events, AvailabilityDays: availabilityDays}
}

type createHotelReq struct {
	Name         string  `json:"name"`
	Area         string  `json:"area"`
	Category     string  `json:"category"`
	Stars        *uint8  `json:"stars"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	EventID      uint64  `json:"event_id"`
}

// CreateHotel handles POST /v1/hotels.  When event_id is given the new
// hotel is linked to that event in the same transaction.
func (h *HotelHandler) CreateHotel(c echo.Context) error {
	var req createHotelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name == "" || req.Area == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and area are required"})
	}

	ctx := c.Request().Context()
	if req.EventID != 0 {
		if _, err := h.Events.GetByID(ctx, req.EventID); err != nil {
			if errors.Is(err, repository.ErrEventNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	hotel := model.Hotel{
		Name:         req.Name,
		Area:         req.Area,
		Category:     req.Category,
		Stars:        req.Stars,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}
	if err := h.Hotels.Create(ctx, &hotel); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create hotel"})
	}
	if req.EventID != 0 {
		tx, err := h.Hotels.DB().BeginTx(ctx, nil)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()
		if err := h.Hotels.LinkToEventTx(ctx, tx, req.EventID, hotel.ID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to link hotel to event"})
		}
		if err := tx.Commit(); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
		}
		committed = true
	}
	return c.JSON(http.StatusCreated, echo.Map{"hotel_id": hotel.ID, "name": hotel.Name})
}

// GetHotel handles GET /v1/hotels/:id and includes the hotel's room
// types.
func (h *HotelHandler) GetHotel(c echo.Context) error {
	hotelID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	ctx := c.Request().Context()
	hotel, err := h.Hotels.GetByID(ctx, hotelID)
	if err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	roomTypes, err := h.RoomTypes.ListByHotel(ctx, hotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rts := make([]echo.Map, 0, len(roomTypes))
	for _, rt := range roomTypes {
		rts = append(rts, echo.Map{
			"id":               rt.ID,
			"name":             rt.Name,
			"total_rooms":      rt.TotalRooms,
			"base_price_cents": rt.BasePriceCents,
			"description":      rt.Description,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":            hotel.ID,
		"name":          hotel.Name,
		"area":          hotel.Area,
		"category":      hotel.Category,
		"stars":         hotel.Stars,
		"contact_email": hotel.ContactEmail,
		"contact_phone": hotel.ContactPhone,
		"room_types":    rts,
	})
}

// ListHotelsByEvent handles GET /v1/events/:id/hotels.
func (h *HotelHandler) ListHotelsByEvent(c echo.Context) error {
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
	hotels, err := h.Hotels.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(hotels))
	for _, hotel := range hotels {
		out = append(out, echo.Map{
			"id":       hotel.ID,
			"name":     hotel.Name,
			"area":     hotel.Area,
			"category": hotel.Category,
			"stars":    hotel.Stars,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"hotels": out})
}

// DeleteHotel handles DELETE /v1/hotels/:id.  The cascade removes room
// types, their availability rows, bookings on those room types and the
// event links, all in one transaction.
func (h *HotelHandler) DeleteHotel(c echo.Context) error {
	hotelID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Hotels.GetByID(ctx, hotelID); err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Hotels.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Hotels.DeleteCascadeTx(ctx, tx, hotelID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete hotel"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}

type roomTypeReq struct {
	Name           string  `json:"name"`
	TotalRooms     uint32  `json:"total_rooms"`
	BasePriceCents uint32  `json:"base_price_cents"`
	Description    *string `json:"description"`
}

// CreateRoomType handles POST /v1/hotels/:hotelID/room-types.  The new
// room type gets availability rows seeded from today for the configured
// horizon so per-date reads and edits have rows to land on.
func (h *HotelHandler) CreateRoomType(c echo.Context) error {
	hotelID, err := pathID(c, "hotelID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	var req roomTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name == "" || req.TotalRooms == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and total_rooms are required"})
	}

	ctx := c.Request().Context()
	if _, err := h.Hotels.GetByID(ctx, hotelID); err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.RoomTypes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	rt := model.RoomType{
		HotelID:        hotelID,
		Name:           req.Name,
		TotalRooms:     req.TotalRooms,
		BasePriceCents: req.BasePriceCents,
		Description:    req.Description,
	}
	if err := h.RoomTypes.CreateTx(ctx, tx, &rt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room type"})
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := h.RoomTypes.SeedAvailabilityTx(ctx, tx, &rt, today, h.AvailabilityDays); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to seed availability"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"room_type_id":     rt.ID,
		"name":             rt.Name,
		"total_rooms":      rt.TotalRooms,
		"base_price_cents": rt.BasePriceCents,
	})
}

// UpdateRoomType handles PUT /v1/hotels/:hotelID/room-types/:id.
// Shrinking total_rooms clamps any per-date availability above the new
// ceiling; growing it leaves overrides alone.
func (h *HotelHandler) UpdateRoomType(c echo.Context) error {
	hotelID, err := pathID(c, "hotelID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	roomTypeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room type id"})
	}
	var req roomTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name == "" || req.TotalRooms == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and total_rooms are required"})
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

	tx, err := h.RoomTypes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	rt.Name = req.Name
	rt.TotalRooms = req.TotalRooms
	rt.BasePriceCents = req.BasePriceCents
	rt.Description = req.Description
	if err := h.RoomTypes.UpdateTx(ctx, tx, rt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update room type"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"room_type_id":     rt.ID,
		"name":             rt.Name,
		"total_rooms":      rt.TotalRooms,
		"base_price_cents": rt.BasePriceCents,
	})
}

// DeleteRoomType handles DELETE /v1/hotels/:hotelID/room-types/:id.
// Bookings and availability rows of the room type go with it.
func (h *HotelHandler) DeleteRoomType(c echo.Context) error {
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

	tx, err := h.RoomTypes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.RoomTypes.DeleteCascadeTx(ctx, tx, roomTypeID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete room type"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}
