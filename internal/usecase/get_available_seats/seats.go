package get_available_seats

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/service/capacity"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// filterBuses оставляет рейсы нужного слота; пустой слот означает все рейсы
func filterBuses(buses []*domain.Bus, slot string) []*domain.Bus {
	if slot == "" {
		return buses
	}
	filtered := make([]*domain.Bus, 0, len(buses))
	for _, b := range buses {
		if b.Slot == slot {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

// calculateSeats считает свободные места рейса
// Запись открыта, если валидатор не отклоняет бронирование по времени для пустого рейса
func calculateSeats(
	v Validator,
	bus *domain.Bus,
	date types.Date,
	now time.Time,
	taken int,
	waiting int,
) BusSeats {
	available := bus.Capacity - taken
	if available < 0 {
		available = 0
	}

	err := v.Validate(capacity.Input{Date: date, Bus: bus, Now: now})
	open := !errors.Is(err, capacity.ErrCutoffPassed) && !errors.Is(err, capacity.ErrBusNotFound)

	return BusSeats{
		BusID:          bus.ID,
		Route:          bus.Route,
		Slot:           bus.Slot,
		DepartureTime:  bus.DepartureTime,
		TotalSeats:     bus.Capacity,
		TakenSeats:     taken,
		AvailableSeats: available,
		WaitlistLength: waiting,
		BookingOpen:    open,
	}
}
