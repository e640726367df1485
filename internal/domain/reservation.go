package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// ResourceKey builds the unit of mutual exclusion for a bus run on a date
func ResourceKey(busID string, date types.Date) string {
	return fmt.Sprintf("%s:%s", busID, date.String())
}

// Reservation is a short-lived soft hold giving one employee the first right
// to confirm a booking on a resource key. It does not consume capacity.
type Reservation struct {
	ResourceKey string    `json:"resourceKey"`
	EmployeeID  string    `json:"employeeId"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// IsExpired returns true once the hold window has passed
func (r *Reservation) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// SecondsLeft returns the remaining hold time rounded up to whole seconds
func (r *Reservation) SecondsLeft(now time.Time) int {
	left := r.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}
