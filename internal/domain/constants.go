package domain

import "time"

// Default configuration values
const (
	DefaultCutoffMinutes      = 15
	DefaultMaxBookingsPerDay  = 2 // one morning + one evening
	DefaultReservationTTL     = 30 * time.Second
	DefaultLockAcquireTimeout = 3 * time.Second
	DefaultLockPollInterval   = 50 * time.Millisecond
	DefaultLockLeaseTTL       = 30 * time.Second
)

// Well-known slot labels
const (
	SlotMorning = "morning"
	SlotEvening = "evening"
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
