package confirm_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ShuttleService/internal/api/handlers"
	createBookingHandler "github.com/m04kA/SMC-ShuttleService/internal/api/handlers/create_booking"
	"github.com/m04kA/SMC-ShuttleService/internal/api/middleware"
	"github.com/m04kA/SMC-ShuttleService/internal/usecase/reservation"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingEmployeeID  = "отсутствует ID сотрудника"
	msgInvalidToken       = "недействительный токен резерва"
	msgExpired            = "срок резерва истёк"
	msgMaintenance        = "запись на рейсы временно закрыта"
)

const route = "POST /reservations/confirm"

type Handler struct {
	useCase ConfirmUseCase
	logger  Logger
}

func NewHandler(useCase ConfirmUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations/confirm
// Ответ совпадает с POST /bookings: 201 для бронирования, 202 для очереди
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := middleware.GetEmployeeID(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing employee ID", route)
		handlers.RespondUnauthorized(w, msgMissingEmployeeID)
		return
	}

	var req ConfirmRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.ValidateStruct(&req); err != nil {
		h.logger.Warn("%s - Validation failed: %v", route, err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(employeeID)
	if err != nil {
		h.logger.Warn("%s - Failed to parse date: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Confirm(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, reservation.ErrInvalidToken):
			h.logger.Warn("%s - Invalid token: employee_id=%s, bus_id=%s", route, employeeID, req.BusID)
			handlers.RespondForbidden(w, msgInvalidToken)

		case errors.Is(err, reservation.ErrExpired):
			h.logger.Warn("%s - Reservation expired: employee_id=%s, bus_id=%s", route, employeeID, req.BusID)
			handlers.RespondError(w, http.StatusGone, msgExpired)

		case errors.Is(err, reservation.ErrInvalidInput):
			h.logger.Warn("%s - Invalid input: %v", route, err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, reservation.ErrMaintenanceMode):
			h.logger.Warn("%s - Maintenance mode", route)
			handlers.RespondServiceUnavailable(w, msgMaintenance, createBookingHandler.RetryAfter)

		default:
			// Остальные ошибки приходят из бронирования
			createBookingHandler.RespondUseCaseError(w, h.logger, route, employeeID, req.BusID, err)
		}
		return
	}

	h.logger.Info("%s - %s: employee_id=%s, bus_id=%s, date=%s", route, result.Outcome, employeeID, req.BusID, req.Date)
	handlers.RespondJSON(w, createBookingHandler.StatusCode(result), createBookingHandler.FromUseCaseResponse(result))
}
