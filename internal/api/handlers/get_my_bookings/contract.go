package get_my_bookings

import (
	"context"

	"github.com/m04kA/SMC-ShuttleService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

type BookingService interface {
	GetEmployeeBookings(ctx context.Context, employeeID string, date types.Date) (*models.EmployeeBookingsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
