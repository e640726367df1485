package cancel_booking

import (
	"fmt"
	"strings"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidInput)
	}

	if strings.TrimSpace(req.EmployeeID) == "" {
		return fmt.Errorf("%w: employeeID is required", ErrInvalidInput)
	}

	if strings.TrimSpace(req.BusID) == "" {
		return fmt.Errorf("%w: busID is required", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	return nil
}
