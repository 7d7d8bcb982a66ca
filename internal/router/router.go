package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-accommodation/internal/handler"
	"github.com/iliyamo/event-accommodation/internal/middleware"
)

// Handlers bundles every handler the router needs so registration does
// not grow a parameter per feature.
type Handlers struct {
	Auth         *handler.AuthHandler
	Availability *handler.AvailabilityHandler
	Booking      *handler.BookingHandler
	Hotel        *handler.HotelHandler
	Person       *handler.PersonHandler
	Notification *handler.NotificationHandler
	Roster       *handler.RosterHandler
}

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring probe this endpoint.
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the authenticated API.  Staff log in at
// /v1/auth/login; everything else lives under /v1 behind JWT
// authentication and a role check.  Destructive operations (deletes,
// company-wide cancellation) additionally require the ADMIN role.
// cacheGET, when non-nil, is applied to the read-heavy availability
// endpoint only; writes must never be served from cache.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, cacheGET echo.MiddlewareFunc) {
	e.POST("/v1/auth/login", h.Auth.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("STAFF", "ADMIN"))

	// Availability: per-date read plus single and batch edits.
	if cacheGET != nil {
		auth.GET("/hotels/:hotelID/room-types/:id/availability", h.Availability.GetAvailability, cacheGET)
	} else {
		auth.GET("/hotels/:hotelID/room-types/:id/availability", h.Availability.GetAvailability)
	}
	auth.PUT("/hotels/:hotelID/room-types/:id/availability", h.Availability.UpsertAvailability)
	auth.PUT("/hotels/:hotelID/room-types/:id/availability/batch", h.Availability.UpsertAvailabilityBatch)

	// Booking lifecycle.
	auth.POST("/bookings", h.Booking.CreateBooking)
	auth.PUT("/bookings/:id", h.Booking.UpdateBooking)
	auth.POST("/bookings/:id/cancel", h.Booking.CancelBooking)
	auth.POST("/hotels/:hotelID/room-types/:id/recalculate-bookings", h.Booking.RecalculateBookings)

	// Hotels and room types.
	auth.POST("/hotels", h.Hotel.CreateHotel)
	auth.GET("/hotels/:id", h.Hotel.GetHotel)
	auth.POST("/hotels/:hotelID/room-types", h.Hotel.CreateRoomType)
	auth.PUT("/hotels/:hotelID/room-types/:id", h.Hotel.UpdateRoomType)

	// Events: linked hotels, attendees, change tracking, roster.
	auth.GET("/events/:id/hotels", h.Hotel.ListHotelsByEvent)
	auth.POST("/events/:id/people/sync", h.Person.SyncRoster)
	auth.GET("/people/:id", h.Person.GetPerson)
	auth.GET("/events/:id/guests-with-changes", h.Notification.GuestsWithChanges)
	auth.POST("/events/:id/notifications/send-changes", h.Notification.SendChanges)
	auth.GET("/events/:eventID/hotels/:hotelID/roster.pdf", h.Roster.GetRosterPDF)

	// Notification audit trail.
	auth.GET("/email-notifications/last", h.Notification.LastNotification)
	auth.POST("/email-notifications", h.Notification.AppendNotification)

	// Destructive operations are ADMIN only.
	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.DELETE("/hotels/:id", h.Hotel.DeleteHotel)
	admin.DELETE("/hotels/:hotelID/room-types/:id", h.Hotel.DeleteRoomType)
	admin.POST("/events/:id/bookings/cancel-by-company", h.Booking.CancelByCompany)
}
