package reserve

import (
	"context"

	"github.com/m04kA/SMC-ShuttleService/internal/usecase/reservation"
)

type ReserveUseCase interface {
	Reserve(ctx context.Context, req *reservation.Request) (*reservation.ReserveResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
