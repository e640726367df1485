package create_booking

import (
	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// Request модель запроса на бронирование места
type Request struct {
	EmployeeID string     // ID сотрудника
	BusID      string     // номер автобуса
	Date       types.Date // дата поездки
}

// Outcome исход успешного запроса
type Outcome string

const (
	// OutcomeConfirmed место забронировано
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeWaitlisted мест нет, сотрудник поставлен в лист ожидания
	OutcomeWaitlisted Outcome = "waitlisted"
)

// Response результат бронирования: Confirmed{booking} или Waitlisted{position}
type Response struct {
	Outcome Outcome

	Booking *domain.Booking // заполнено при OutcomeConfirmed

	WaitlistEntry *domain.WaitlistEntry // заполнено при OutcomeWaitlisted
	Position      int                   // позиция в листе ожидания
}

// IsConfirmed возвращает true, если место забронировано
func (r *Response) IsConfirmed() bool {
	return r.Outcome == OutcomeConfirmed
}
