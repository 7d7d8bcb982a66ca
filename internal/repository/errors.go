// Package repository defines error types that are reused across
// multiple repositories.  These sentinel values allow handlers to
// distinguish failure scenarios: not-found errors become 404,
// ErrCapacityExceeded becomes 409, ErrInvalidTransition becomes 409,
// and anything else becomes 500.
package repository

import "errors"

// ErrHotelNotFound indicates that a hotel row does not exist.
var ErrHotelNotFound = errors.New("hotel not found")

// ErrRoomTypeNotFound indicates that a room type row does not exist.
var ErrRoomTypeNotFound = errors.New("room type not found")

// ErrBookingNotFound indicates that a booking row does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEventNotFound indicates that an event row does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrPersonNotFound indicates that a person row does not exist.
var ErrPersonNotFound = errors.New("person not found")

// ErrCapacityExceeded is returned when creating a booking would push
// any night of the stay below zero available rooms.  Handlers should
// translate this into an HTTP 409 response.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrInvalidTransition is returned when a booking status change is not
// permitted by the transition table (e.g. cancelling an invalidated
// booking).  Handlers should translate this into an HTTP 409 response.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrStaleMarker is returned when a compare-and-swap advance of a
// notification marker lost against a concurrent dispatch run.
var ErrStaleMarker = errors.New("stale notification marker")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state.  Handlers should translate this into
// an HTTP 409 response.
var ErrConflict = errors.New("conflict")
