// Package seating generates the canonical seat labels of a screening room.
//
// Rooms are laid out in rows lettered A–Z with ten seats per row, so a room
// holds at most 260 labelled seats.  The order returned by Layout (row-major,
// seat number ascending) is the order used for availability reporting.
package seating

import (
	"regexp"
	"strconv"
)

const (
	// SeatsPerRow is the number of seats in every row.
	SeatsPerRow = 10
	// MaxRows is the number of row letters available (A–Z).
	MaxRows = 26
	// MaxSeats is the largest layout that can be generated.
	MaxSeats = SeatsPerRow * MaxRows
)

var labelPattern = regexp.MustCompile(`^[A-Z][0-9]{1,2}$`)

// Layout returns the ordered seat labels for a room with totalSeats seats.
// Capacities above MaxSeats are truncated at MaxSeats; non-positive
// capacities yield an empty layout.
func Layout(totalSeats int) []string {
	if totalSeats <= 0 {
		return []string{}
	}
	if totalSeats > MaxSeats {
		totalSeats = MaxSeats
	}
	seats := make([]string, 0, totalSeats)
	for row := 0; row < MaxRows && len(seats) < totalSeats; row++ {
		letter := string(rune('A' + row))
		for n := 1; n <= SeatsPerRow && len(seats) < totalSeats; n++ {
			seats = append(seats, letter+strconv.Itoa(n))
		}
	}
	return seats
}

// ValidLabel reports whether label has the shape of a seat label: one
// uppercase row letter followed by one or two digits.
func ValidLabel(label string) bool {
	return labelPattern.MatchString(label)
}

// InLayout reports whether label is one of the seats generated by
// Layout(totalSeats).  It does not allocate the layout.
func InLayout(label string, totalSeats int) bool {
	if !ValidLabel(label) {
		return false
	}
	row := int(label[0] - 'A')
	n, err := strconv.Atoi(label[1:])
	if err != nil || n < 1 || n > SeatsPerRow {
		return false
	}
	// leading zeros ("A01") never appear in a generated layout
	if label[1] == '0' {
		return false
	}
	if totalSeats > MaxSeats {
		totalSeats = MaxSeats
	}
	return row*SeatsPerRow+n <= totalSeats
}
