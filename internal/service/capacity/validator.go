package capacity

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// Input снимок состояния, прочитанный под блокировкой ресурса
type Input struct {
	EmployeeID string
	Date       types.Date
	Bus        *domain.Bus

	// EmployeeBookings активные бронирования сотрудника на эту дату по всем рейсам
	EmployeeBookings []*domain.Booking

	// ActiveCount количество активных бронирований рейса на дату
	ActiveCount int

	Now time.Time
}

// Validator проверки допустимости бронирования
// Не имеет побочных эффектов; правила проверяются по порядку, первое нарушенное побеждает
type Validator struct {
	policy domain.BookingPolicy
}

// NewValidator создает валидатор с заданной политикой бронирования
func NewValidator(policy domain.BookingPolicy) *Validator {
	return &Validator{policy: policy}
}

// Policy возвращает политику бронирования валидатора
func (v *Validator) Policy() domain.BookingPolicy {
	return v.policy
}

// Validate возвращает nil, если место можно занять, иначе одну из ошибок пакета
func (v *Validator) Validate(in Input) error {
	if in.Bus == nil || !in.Bus.IsBookable() {
		return ErrBusNotFound
	}

	if err := v.checkCutoff(in); err != nil {
		return err
	}

	for _, b := range in.EmployeeBookings {
		if b.IsActive() && b.Slot == in.Bus.Slot {
			return fmt.Errorf("%w: you already have a %s booking for this date", ErrSlotConflict, in.Bus.Slot)
		}
	}

	if v.policy.HasDailyLimit() && countActive(in.EmployeeBookings) >= v.policy.MaxBookingsPerDay {
		return fmt.Errorf("%w: at most %d bookings per day", ErrDailyLimitExceeded, v.policy.MaxBookingsPerDay)
	}

	if in.ActiveCount >= in.Bus.Capacity {
		return ErrFull
	}

	return nil
}

// checkCutoff запрещает прошедшие даты и запись позже чем за CutoffMinutes до отправления
// При выключенном cutoff запись на сегодня закрывается в момент отправления
func (v *Validator) checkCutoff(in Input) error {
	loc := v.policy.Loc()
	now := in.Now.In(loc)
	today := types.DateOf(now)

	if in.Date.Before(today) {
		return fmt.Errorf("%w: date %s is in the past", ErrCutoffPassed, in.Date)
	}
	if in.Date.After(today) {
		return nil
	}

	departure, err := in.Bus.DepartureOn(in.Date, loc)
	if err != nil {
		return fmt.Errorf("%w: bus %s has invalid departure time", ErrBusNotFound, in.Bus.ID)
	}

	closesAt := departure
	if v.policy.CutoffEnabled {
		closesAt = departure.Add(-time.Duration(v.policy.CutoffMinutes) * time.Minute)
	}
	if !now.Before(closesAt) {
		return fmt.Errorf("%w: booking closed at %s", ErrCutoffPassed, closesAt.Format(domain.TimeFormat))
	}

	return nil
}

func countActive(bookings []*domain.Booking) int {
	n := 0
	for _, b := range bookings {
		if b.IsActive() {
			n++
		}
	}
	return n
}
