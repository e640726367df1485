package get_available_seats

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	return nil
}

// validateDate проверяет, что дата не в прошлом относительно часового пояса расписания
func validateDate(date types.Date, now time.Time, loc *time.Location) error {
	today := types.DateOf(now.In(loc))
	if date.Before(today) {
		return fmt.Errorf("%w: %s is in the past", ErrInvalidDate, date)
	}
	return nil
}
