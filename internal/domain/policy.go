package domain

import "time"

// BookingPolicy holds the tunable booking rules injected into the validator
type BookingPolicy struct {
	Location          *time.Location // timezone of departure times and "today"
	CutoffEnabled     bool
	CutoffMinutes     int // booking closes this many minutes before departure
	MaxBookingsPerDay int // 0 = unlimited
	MaintenanceMode   bool
}

// DefaultBookingPolicy returns the policy used when nothing is configured
func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		Location:          time.UTC,
		CutoffEnabled:     true,
		CutoffMinutes:     DefaultCutoffMinutes,
		MaxBookingsPerDay: DefaultMaxBookingsPerDay,
	}
}

// HasDailyLimit returns true if the number of bookings per day is capped
func (p BookingPolicy) HasDailyLimit() bool {
	return p.MaxBookingsPerDay > 0
}

// Loc returns the policy timezone, UTC if unset
func (p BookingPolicy) Loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
