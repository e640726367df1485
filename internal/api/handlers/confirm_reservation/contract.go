package confirm_reservation

import (
	"context"

	createBooking "github.com/m04kA/SMC-ShuttleService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ShuttleService/internal/usecase/reservation"
)

type ConfirmUseCase interface {
	Confirm(ctx context.Context, req *reservation.ConfirmRequest) (*createBooking.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
