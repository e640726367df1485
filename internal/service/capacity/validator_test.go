package capacity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

var (
	date = types.NewDate(2025, time.October, 10)
	// накануне поездки
	dayBefore = time.Date(2025, time.October, 9, 12, 0, 0, 0, time.UTC)
)

func morningBus() *domain.Bus {
	return &domain.Bus{ID: "B1", Capacity: 2, DepartureTime: "07:30", Slot: domain.SlotMorning, Active: true}
}

func active(slot string) *domain.Booking {
	return &domain.Booking{Slot: slot, Status: domain.BookingStatusActive, ScheduleDate: date}
}

func TestValidator_Rules(t *testing.T) {
	v := NewValidator(domain.DefaultBookingPolicy())

	tests := []struct {
		name    string
		in      Input
		wantErr error
	}{
		{
			name: "ok",
			in:   Input{Bus: morningBus(), Date: date, Now: dayBefore},
		},
		{
			name:    "missing bus",
			in:      Input{Date: date, Now: dayBefore},
			wantErr: ErrBusNotFound,
		},
		{
			name: "inactive bus",
			in: Input{Bus: func() *domain.Bus {
				b := morningBus()
				b.Active = false
				return b
			}(), Date: date, Now: dayBefore},
			wantErr: ErrBusNotFound,
		},
		{
			name:    "date in the past",
			in:      Input{Bus: morningBus(), Date: date, Now: dayBefore.AddDate(0, 0, 2)},
			wantErr: ErrCutoffPassed,
		},
		{
			name:    "today before cutoff",
			in:      Input{Bus: morningBus(), Date: date, Now: time.Date(2025, time.October, 10, 7, 14, 59, 0, time.UTC)},
			wantErr: nil,
		},
		{
			name:    "today at cutoff",
			in:      Input{Bus: morningBus(), Date: date, Now: time.Date(2025, time.October, 10, 7, 15, 0, 0, time.UTC)},
			wantErr: ErrCutoffPassed,
		},
		{
			name:    "slot conflict",
			in:      Input{Bus: morningBus(), Date: date, Now: dayBefore, EmployeeBookings: []*domain.Booking{active(domain.SlotMorning)}},
			wantErr: ErrSlotConflict,
		},
		{
			name: "cancelled booking in the same slot is ignored",
			in: Input{Bus: morningBus(), Date: date, Now: dayBefore, EmployeeBookings: []*domain.Booking{
				{Slot: domain.SlotMorning, Status: domain.BookingStatusCancelled},
			}},
		},
		{
			name: "daily limit",
			in: Input{Bus: morningBus(), Date: date, Now: dayBefore, EmployeeBookings: []*domain.Booking{
				active(domain.SlotEvening), active("night"),
			}},
			wantErr: ErrDailyLimitExceeded,
		},
		{
			name:    "full",
			in:      Input{Bus: morningBus(), Date: date, Now: dayBefore, ActiveCount: 2},
			wantErr: ErrFull,
		},
		{
			name:    "slot conflict wins over full",
			in:      Input{Bus: morningBus(), Date: date, Now: dayBefore, ActiveCount: 2, EmployeeBookings: []*domain.Booking{active(domain.SlotMorning)}},
			wantErr: ErrSlotConflict,
		},
		{
			name:    "past date wins over slot conflict",
			in:      Input{Bus: morningBus(), Date: date.AddDays(-5), Now: dayBefore, EmployeeBookings: []*domain.Booking{active(domain.SlotMorning)}},
			wantErr: ErrCutoffPassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidator_SlotConflictMessage(t *testing.T) {
	v := NewValidator(domain.DefaultBookingPolicy())

	err := v.Validate(Input{Bus: morningBus(), Date: date, Now: dayBefore, EmployeeBookings: []*domain.Booking{active(domain.SlotMorning)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "you already have a morning booking for this date")
}

func TestValidator_CutoffDisabledClosesAtDeparture(t *testing.T) {
	policy := domain.DefaultBookingPolicy()
	policy.CutoffEnabled = false
	v := NewValidator(policy)

	require.NoError(t, v.Validate(Input{Bus: morningBus(), Date: date, Now: time.Date(2025, time.October, 10, 7, 29, 0, 0, time.UTC)}))
	require.ErrorIs(t, v.Validate(Input{Bus: morningBus(), Date: date, Now: time.Date(2025, time.October, 10, 7, 30, 0, 0, time.UTC)}), ErrCutoffPassed)
}

func TestValidator_UsesPolicyTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	policy := domain.DefaultBookingPolicy()
	policy.Location = loc
	v := NewValidator(policy)

	// 04:00 UTC = 07:00 по местному времени, до cutoff 07:15 ещё есть время
	require.NoError(t, v.Validate(Input{Bus: morningBus(), Date: date, Now: time.Date(2025, time.October, 10, 4, 0, 0, 0, time.UTC)}))

	// 23:00 UTC 9 октября = уже 10 октября 02:00 по местному времени
	require.NoError(t, v.Validate(Input{Bus: morningBus(), Date: date, Now: time.Date(2025, time.October, 9, 23, 0, 0, 0, time.UTC)}))

	// 04:20 UTC = 07:20 местного, после cutoff
	require.ErrorIs(t, v.Validate(Input{Bus: morningBus(), Date: date, Now: time.Date(2025, time.October, 10, 4, 20, 0, 0, time.UTC)}), ErrCutoffPassed)
}

func TestValidator_UnlimitedPerDay(t *testing.T) {
	policy := domain.DefaultBookingPolicy()
	policy.MaxBookingsPerDay = 0
	v := NewValidator(policy)

	require.NoError(t, v.Validate(Input{Bus: morningBus(), Date: date, Now: dayBefore, EmployeeBookings: []*domain.Booking{
		active(domain.SlotEvening), active("night"), active("noon"),
	}}))
}
