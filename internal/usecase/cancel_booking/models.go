package cancel_booking

import (
	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// Request модель запроса на отмену
type Request struct {
	EmployeeID string     // ID сотрудника
	BusID      string     // номер автобуса
	Date       types.Date // дата поездки
}

// Outcome что именно было отменено
type Outcome string

const (
	// OutcomeBookingCancelled отменено активное бронирование
	OutcomeBookingCancelled Outcome = "booking_cancelled"
	// OutcomeWaitlistCancelled отменена запись в листе ожидания
	OutcomeWaitlistCancelled Outcome = "waitlist_cancelled"
)

// Response результат отмены
type Response struct {
	Outcome Outcome

	Booking       *domain.Booking       // отменённое бронирование (OutcomeBookingCancelled)
	WaitlistEntry *domain.WaitlistEntry // отменённая запись (OutcomeWaitlistCancelled)

	// Promoted бронирование, созданное для первого подходящего сотрудника из очереди; nil, если никого не продвинули
	Promoted      *domain.Booking
	PromotedEntry *domain.WaitlistEntry

	// Dropped записи, снятые с очереди при продвижении (истекли или стали недопустимы)
	Dropped []*domain.WaitlistEntry
}
