package domain

import (
	"time"

	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// WaitlistStatus represents the status of a waitlist entry
type WaitlistStatus string

const (
	WaitlistStatusWaiting   WaitlistStatus = "waiting"
	WaitlistStatusConverted WaitlistStatus = "converted"
	WaitlistStatusCancelled WaitlistStatus = "cancelled"
)

// WaitlistEntry is a queued request for a seat on a full bus.
// Position is assigned per (bus, date) and starts at 1.
type WaitlistEntry struct {
	ID           int64
	BusID        string
	ScheduleDate types.Date
	Position     int
	EmployeeID   string
	Status       WaitlistStatus
	ExpiresAt    *time.Time // departure instant; nil = never expires

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsWaiting returns true if the entry is still queued
func (e *WaitlistEntry) IsWaiting() bool {
	return e.Status == WaitlistStatusWaiting
}

// IsExpired returns true if the entry can no longer be promoted
func (e *WaitlistEntry) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// IsValid reports whether s is a known waitlist status
func (s WaitlistStatus) IsValid() bool {
	switch s {
	case WaitlistStatusWaiting, WaitlistStatusConverted, WaitlistStatusCancelled:
		return true
	default:
		return false
	}
}
