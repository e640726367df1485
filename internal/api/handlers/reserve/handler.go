package reserve

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/api/handlers"
	"github.com/m04kA/SMC-ShuttleService/internal/api/middleware"
	"github.com/m04kA/SMC-ShuttleService/internal/usecase/reservation"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingEmployeeID  = "отсутствует ID сотрудника"
	msgBusNotFound        = "автобус не найден"
	msgReservedByOther    = "рейс временно зарезервирован другим сотрудником"
	msgMaintenance        = "запись на рейсы временно закрыта"
	msgBusy               = "рейс сейчас бронируют другие сотрудники, повторите попытку"
)

const retryAfter = time.Second

type Handler struct {
	useCase ReserveUseCase
	logger  Logger
}

func NewHandler(useCase ReserveUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := middleware.GetEmployeeID(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations - Missing employee ID")
		handlers.RespondUnauthorized(w, msgMissingEmployeeID)
		return
	}

	var req ReserveRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.ValidateStruct(&req); err != nil {
		h.logger.Warn("POST /reservations - Validation failed: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(employeeID)
	if err != nil {
		h.logger.Warn("POST /reservations - Failed to parse date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Reserve(r.Context(), useCaseReq)
	if err != nil {
		var held *reservation.ReservedByOtherError
		switch {
		case errors.As(err, &held):
			h.logger.Info("POST /reservations - Reserved by other: bus_id=%s, seconds_left=%d", req.BusID, held.SecondsLeft)
			handlers.RespondJSON(w, http.StatusConflict, ReservedByOtherResponse{
				Code:        http.StatusConflict,
				Message:     msgReservedByOther,
				SecondsLeft: held.SecondsLeft,
			})

		case errors.Is(err, reservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, reservation.ErrBusNotFound):
			h.logger.Warn("POST /reservations - Bus not found: bus_id=%s", req.BusID)
			handlers.RespondNotFound(w, msgBusNotFound)

		case errors.Is(err, reservation.ErrMaintenanceMode):
			h.logger.Warn("POST /reservations - Maintenance mode")
			handlers.RespondServiceUnavailable(w, msgMaintenance, retryAfter)

		case errors.Is(err, reservation.ErrBusy):
			h.logger.Warn("POST /reservations - Resource busy: bus_id=%s", req.BusID)
			handlers.RespondServiceUnavailable(w, msgBusy, retryAfter)

		default:
			h.logger.Error("POST /reservations - Failed to reserve: employee_id=%s, bus_id=%s, error=%v", employeeID, req.BusID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Reserved: employee_id=%s, resource=%s, seconds_left=%d",
		employeeID, result.ResourceKey, result.SecondsLeft)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
