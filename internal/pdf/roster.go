// Package pdf renders printable documents for hotel partners.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/iliyamo/event-accommodation/internal/repository"
)

// RosterDoc carries everything the roster PDF prints.
type RosterDoc struct {
	EventName string
	HotelName string
	Rows      []repository.RosterRow
}

// BuildRoster renders the check-in roster as an A4 landscape table and
// returns the PDF bytes plus a suggested filename.
func BuildRoster(doc RosterDoc) ([]byte, string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Guest Roster", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Guest Roster - %s", doc.HotelName))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Event: %s", doc.EventName))
	pdf.Ln(10)

	type col struct {
		title string
		width float64
	}
	cols := []col{
		{"Booking", 22},
		{"Guest", 60},
		{"Email", 65},
		{"Company", 45},
		{"Room Type", 40},
		{"Check-in", 24},
		{"Check-out", 24},
	}

	pdf.SetFont("Helvetica", "B", 10)
	for _, c := range cols {
		pdf.CellFormat(c.width, 8, c.title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range doc.Rows {
		company := "-"
		if r.Company != nil && *r.Company != "" {
			company = *r.Company
		}
		cells := []string{
			fmt.Sprintf("#%d", r.BookingID),
			r.GuestLastName + ", " + r.GuestFirstName,
			r.GuestEmail,
			company,
			r.RoomTypeName,
			r.CheckInDate.Format("2006-01-02"),
			r.CheckOutDate.Format("2006-01-02"),
		}
		for i, c := range cols {
			pdf.CellFormat(c.width, 7, cells[i], "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(doc.Rows) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 8, "No active bookings.")
		pdf.Ln(8)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Total guests: %d", len(doc.Rows)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("roster_%s.pdf", sanitizeFilename(doc.HotelName))
	return buf.Bytes(), filename, nil
}

func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
