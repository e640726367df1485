package reserve

import (
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/usecase/reservation"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// ReserveRequest HTTP request model
type ReserveRequest struct {
	BusID string `json:"busId" validate:"required,max=64"`
	Date  string `json:"date" validate:"required,date"`
}

// ReserveResponse выданный резерв
type ReserveResponse struct {
	Token       string `json:"token"`
	ExpiresAt   string `json:"expiresAt"`
	SecondsLeft int    `json:"secondsLeft"`
}

// ReservedByOtherResponse тело 409, когда рейс удерживает другой сотрудник
type ReservedByOtherResponse struct {
	Code        int    `json:"code"`
	Message     string `json:"message"`
	SecondsLeft int    `json:"secondsLeft"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ReserveRequest) ToUseCaseRequest(employeeID string) (*reservation.Request, error) {
	date, err := types.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	return &reservation.Request{EmployeeID: employeeID, BusID: r.BusID, Date: date}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reservation.ReserveResponse) *ReserveResponse {
	return &ReserveResponse{
		Token:       resp.Token,
		ExpiresAt:   resp.ExpiresAt.Format(time.RFC3339),
		SecondsLeft: resp.SecondsLeft,
	}
}
