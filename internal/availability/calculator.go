// Package availability resolves per-date room availability and pricing.
// It overlays override rows onto room-type defaults and subtracts rooms
// already consumed by active bookings.  All functions are pure; the
// repository layer supplies the rows.
package availability

import (
	"time"

	"github.com/iliyamo/event-accommodation/internal/model"
)

// Day is one resolved date in an availability grid.
type Day struct {
	Date           time.Time `json:"date"`
	AvailableRooms int32     `json:"available_rooms"`
	PriceCents     uint32    `json:"price_per_night_cents"`
}

// Midnight truncates t to midnight UTC.  All date arithmetic in this
// package operates on midnight-UTC values so map keys compare equal.
func Midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights returns the number of consumed nights in [checkIn, checkOut).
// The check-out night is exclusive.  Returns 0 when the range is empty
// or inverted.
func Nights(checkIn, checkOut time.Time) int {
	in, out := Midnight(checkIn), Midnight(checkOut)
	if !in.Before(out) {
		return 0
	}
	return int(out.Sub(in).Hours() / 24)
}

// Covers reports whether the stay [checkIn, checkOut) consumes date.
func Covers(checkIn, checkOut, date time.Time) bool {
	d := Midnight(date)
	return !d.Before(Midnight(checkIn)) && d.Before(Midnight(checkOut))
}

// Resolve builds the per-day grid for the inclusive range [start, end].
// For each date the override row wins when present, otherwise the room
// type defaults apply.  booked maps a midnight-UTC date to the number
// of rooms consumed by active bookings on that night; the count is
// subtracted as-is, so the result may be negative when staff edited an
// override below what is already booked.
func Resolve(rt model.RoomType, overrides []model.RoomAvailability, booked map[time.Time]int, start, end time.Time) []Day {
	from, to := Midnight(start), Midnight(end)
	if to.Before(from) {
		return []Day{}
	}
	byDate := make(map[time.Time]model.RoomAvailability, len(overrides))
	for _, ov := range overrides {
		byDate[Midnight(ov.Date)] = ov
	}
	days := make([]Day, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day := Day{
			Date:           d,
			AvailableRooms: int32(rt.TotalRooms),
			PriceCents:     rt.BasePriceCents,
		}
		if ov, ok := byDate[d]; ok {
			day.AvailableRooms = ov.AvailableRooms
			day.PriceCents = ov.PriceCents
		}
		day.AvailableRooms -= int32(booked[d])
		days = append(days, day)
	}
	return days
}

// StayCost sums the nightly prices over [checkIn, checkOut), taking
// the per-date override price when present and the base rate otherwise.
func StayCost(rt model.RoomType, overrides []model.RoomAvailability, checkIn, checkOut time.Time) uint32 {
	priceByDate := make(map[time.Time]uint32, len(overrides))
	for _, ov := range overrides {
		priceByDate[Midnight(ov.Date)] = ov.PriceCents
	}
	in, out := Midnight(checkIn), Midnight(checkOut)
	var total uint32
	for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
		if p, ok := priceByDate[d]; ok {
			total += p
		} else {
			total += rt.BasePriceCents
		}
	}
	return total
}

// HasCapacity checks whether one more booking over [checkIn, checkOut)
// fits into the resolved grid.  It returns false together with the
// first date that would go below zero.
func HasCapacity(rt model.RoomType, overrides []model.RoomAvailability, booked map[time.Time]int, checkIn, checkOut time.Time) (bool, time.Time) {
	in, out := Midnight(checkIn), Midnight(checkOut)
	if !in.Before(out) {
		return false, in
	}
	days := Resolve(rt, overrides, booked, in, out.AddDate(0, 0, -1))
	for _, day := range days {
		if day.AvailableRooms-1 < 0 {
			return false, day.Date
		}
	}
	return true, time.Time{}
}
