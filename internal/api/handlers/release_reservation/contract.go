package release_reservation

import (
	"context"

	"github.com/m04kA/SMC-ShuttleService/internal/usecase/reservation"
)

type ReleaseUseCase interface {
	Release(ctx context.Context, req *reservation.Request) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
