package confirm_reservation

import (
	"github.com/m04kA/SMC-ShuttleService/internal/usecase/reservation"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// ConfirmRequest HTTP request model
type ConfirmRequest struct {
	BusID string `json:"busId" validate:"required,max=64"`
	Date  string `json:"date" validate:"required,date"`
	Token string `json:"token" validate:"required"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ConfirmRequest) ToUseCaseRequest(employeeID string) (*reservation.ConfirmRequest, error) {
	date, err := types.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	return &reservation.ConfirmRequest{
		EmployeeID: employeeID,
		BusID:      r.BusID,
		Date:       date,
		Token:      r.Token,
	}, nil
}
