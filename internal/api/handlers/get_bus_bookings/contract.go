package get_bus_bookings

import (
	"context"

	"github.com/m04kA/SMC-ShuttleService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

type BookingService interface {
	GetBusBookings(ctx context.Context, busID string, date types.Date) (*models.BusBookingsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
