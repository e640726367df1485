package release_reservation

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ShuttleService/internal/api/handlers"
	"github.com/m04kA/SMC-ShuttleService/internal/api/middleware"
	"github.com/m04kA/SMC-ShuttleService/internal/usecase/reservation"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

const (
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingEmployeeID = "отсутствует ID сотрудника"
	msgBusy              = "рейс сейчас бронируют другие сотрудники, повторите попытку"
)

type Handler struct {
	useCase ReleaseUseCase
	logger  Logger
}

func NewHandler(useCase ReleaseUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/reservations/{busId}/{date}
// Идемпотентна: отсутствующий или чужой резерв тоже дает 204
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := middleware.GetEmployeeID(r.Context())
	if !ok {
		h.logger.Warn("DELETE /reservations - Missing employee ID")
		handlers.RespondUnauthorized(w, msgMissingEmployeeID)
		return
	}

	vars := mux.Vars(r)
	busID := vars["busId"]
	date, err := types.ParseDate(vars["date"])
	if err != nil {
		h.logger.Warn("DELETE /reservations - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	err = h.useCase.Release(r.Context(), &reservation.Request{EmployeeID: employeeID, BusID: busID, Date: date})
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrInvalidInput):
			h.logger.Warn("DELETE /reservations - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, reservation.ErrBusy):
			h.logger.Warn("DELETE /reservations - Resource busy: bus_id=%s", busID)
			handlers.RespondServiceUnavailable(w, msgBusy, time.Second)

		default:
			h.logger.Error("DELETE /reservations - Failed to release: employee_id=%s, bus_id=%s, error=%v", employeeID, busID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /reservations - Released: employee_id=%s, bus_id=%s, date=%s", employeeID, busID, date)
	w.WriteHeader(http.StatusNoContent)
}
