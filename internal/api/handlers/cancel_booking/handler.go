package cancel_booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/api/handlers"
	"github.com/m04kA/SMC-ShuttleService/internal/api/middleware"
	cancelBooking "github.com/m04kA/SMC-ShuttleService/internal/usecase/cancel_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingEmployeeID  = "отсутствует ID сотрудника"
	msgNotFound           = "бронирование не найдено"
	msgBusy               = "рейс сейчас бронируют другие сотрудники, повторите попытку"
)

type Handler struct {
	useCase CancelBookingUseCase
	logger  Logger
}

func NewHandler(useCase CancelBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := middleware.GetEmployeeID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings/cancel - Missing employee ID")
		handlers.RespondUnauthorized(w, msgMissingEmployeeID)
		return
	}

	var req CancelBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/cancel - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.ValidateStruct(&req); err != nil {
		h.logger.Warn("POST /bookings/cancel - Validation failed: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(employeeID)
	if err != nil {
		h.logger.Warn("POST /bookings/cancel - Failed to parse date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, cancelBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings/cancel - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, cancelBooking.ErrNotFound):
			h.logger.Warn("POST /bookings/cancel - Nothing to cancel: employee_id=%s, bus_id=%s, date=%s",
				employeeID, req.BusID, req.Date)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, cancelBooking.ErrBusy):
			h.logger.Warn("POST /bookings/cancel - Resource busy: bus_id=%s, date=%s", req.BusID, req.Date)
			handlers.RespondServiceUnavailable(w, msgBusy, time.Second)

		default:
			h.logger.Error("POST /bookings/cancel - Failed to cancel: employee_id=%s, bus_id=%s, error=%v",
				employeeID, req.BusID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/cancel - %s: employee_id=%s, bus_id=%s, date=%s",
		result.Outcome, employeeID, req.BusID, req.Date)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
