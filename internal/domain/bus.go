package domain

import (
	"time"

	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// Bus represents a scheduled shuttle run from the external catalog.
// It is reference data: the booking engine never mutates it.
type Bus struct {
	ID            string // bus number
	Route         string
	Capacity      int
	DepartureTime types.TimeString
	Slot          string // morning, evening, ...
	Active        bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsBookable returns true if seats on this bus may be booked at all
func (b *Bus) IsBookable() bool {
	return b.Active && b.Capacity > 0
}

// DepartureOn returns the departure instant of this bus on the given date
func (b *Bus) DepartureOn(date types.Date, loc *time.Location) (time.Time, error) {
	return date.At(b.DepartureTime, loc)
}
