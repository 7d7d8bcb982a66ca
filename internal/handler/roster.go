package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-accommodation/internal/pdf"
	"github.com/iliyamo/event-accommodation/internal/repository"
)

// RosterHandler serves the printable per-hotel guest roster.
type RosterHandler struct {
	Events   *repository.EventRepo
	Hotels   *repository.HotelRepo
	Bookings *repository.BookingRepo
}

// NewRosterHandler constructs a RosterHandler.  All repositories must
// be non-nil.
func NewRosterHandler(events *repository.EventRepo, hotels *repository.HotelRepo, bookings *repository.BookingRepo) *RosterHandler {
	if events == nil || hotels == nil || bookings == nil {
		panic("nil repository passed to NewRosterHandler")
	}
	return &RosterHandler{Events: events, Hotels: hotels, Bookings: bookings}
}

// GetRosterPDF handles GET /v1/events/:eventID/hotels/:hotelID/roster.pdf.
func (h *RosterHandler) GetRosterPDF(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	hotelID, err := pathID(c, "hotelID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}

	ctx := c.Request().Context()
	event, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hotel, err := h.Hotels.GetByID(ctx, hotelID)
	if err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rows, err := h.Bookings.RosterByEventAndHotel(ctx, eventID, hotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}

	out, filename, err := pdf.BuildRoster(pdf.RosterDoc{
		EventName: event.Name,
		HotelName: hotel.Name,
		Rows:      rows,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to render roster"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "application/pdf", out)
}
