package domain

import (
	"time"

	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a confirmed seat for an employee on a bus at a date.
// Bookings are never deleted, only transitioned to cancelled.
type Booking struct {
	ID           string
	EmployeeID   string
	BusID        string
	ScheduleDate types.Date
	Slot         string // denormalized from the bus

	Status      BookingStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// IsActive returns true if the booking holds a seat
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusActive
}

// IsValid reports whether s is a known booking status
func (s BookingStatus) IsValid() bool {
	return s == BookingStatusActive || s == BookingStatusCancelled
}
