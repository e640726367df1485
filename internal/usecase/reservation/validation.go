package reservation

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

func validateTarget(employeeID, busID string, date types.Date) error {
	if strings.TrimSpace(employeeID) == "" {
		return fmt.Errorf("%w: employeeID is required", ErrInvalidInput)
	}
	if strings.TrimSpace(busID) == "" {
		return fmt.Errorf("%w: busID is required", ErrInvalidInput)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return nil
}

func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidInput)
	}
	return validateTarget(req.EmployeeID, req.BusID, req.Date)
}

func validateConfirmRequest(req *ConfirmRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidInput)
	}
	if err := validateTarget(req.EmployeeID, req.BusID, req.Date); err != nil {
		return err
	}
	if strings.TrimSpace(req.Token) == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	return nil
}
