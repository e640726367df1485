package create_booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/api/handlers"
	"github.com/m04kA/SMC-ShuttleService/internal/api/middleware"
	createBooking "github.com/m04kA/SMC-ShuttleService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingEmployeeID  = "отсутствует ID сотрудника"
	msgBusNotFound        = "автобус не найден"
	msgCutoffPassed       = "запись на этот рейс закрыта"
	msgSlotConflict       = "у вас уже есть бронирование на этот слот в выбранную дату"
	msgDailyLimit         = "превышен лимит бронирований на день"
	msgMaintenance        = "запись на рейсы временно закрыта"
	msgBusy               = "рейс сейчас бронируют другие сотрудники, повторите попытку"
)

// RetryAfter подсказка клиенту при занятом ресурсе
const RetryAfter = time.Second

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := middleware.GetEmployeeID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing employee ID")
		handlers.RespondUnauthorized(w, msgMissingEmployeeID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.ValidateStruct(&req); err != nil {
		h.logger.Warn("POST /bookings - Validation failed: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(employeeID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		RespondUseCaseError(w, h.logger, "POST /bookings", employeeID, req.BusID, err)
		return
	}

	h.logger.Info("POST /bookings - %s: employee_id=%s, bus_id=%s, date=%s",
		result.Outcome, employeeID, req.BusID, req.Date)
	handlers.RespondJSON(w, StatusCode(result), FromUseCaseResponse(result))
}

// RespondUseCaseError отображает ошибки бронирования в HTTP ответ
// Используется также подтверждением резерва, которое завершается тем же бронированием
func RespondUseCaseError(w http.ResponseWriter, logger Logger, route, employeeID, busID string, err error) {
	switch {
	case errors.Is(err, createBooking.ErrInvalidInput):
		logger.Warn("%s - Invalid input: employee_id=%s, error=%v", route, employeeID, err)
		handlers.RespondBadRequest(w, err.Error())

	case errors.Is(err, createBooking.ErrBusNotFound):
		logger.Warn("%s - Bus not found: bus_id=%s", route, busID)
		handlers.RespondNotFound(w, msgBusNotFound)

	case errors.Is(err, createBooking.ErrCutoffPassed):
		logger.Warn("%s - Cutoff passed: employee_id=%s, bus_id=%s", route, employeeID, busID)
		handlers.RespondConflict(w, msgCutoffPassed)

	case errors.Is(err, createBooking.ErrSlotConflict):
		logger.Warn("%s - Slot conflict: employee_id=%s, bus_id=%s", route, employeeID, busID)
		handlers.RespondConflict(w, msgSlotConflict)

	case errors.Is(err, createBooking.ErrDailyLimitExceeded):
		logger.Warn("%s - Daily limit exceeded: employee_id=%s", route, employeeID)
		handlers.RespondConflict(w, msgDailyLimit)

	case errors.Is(err, createBooking.ErrMaintenanceMode):
		logger.Warn("%s - Maintenance mode", route)
		handlers.RespondServiceUnavailable(w, msgMaintenance, RetryAfter)

	case errors.Is(err, createBooking.ErrBusy):
		logger.Warn("%s - Resource busy: employee_id=%s, bus_id=%s", route, employeeID, busID)
		handlers.RespondServiceUnavailable(w, msgBusy, RetryAfter)

	default:
		logger.Error("%s - Failed to create booking: employee_id=%s, bus_id=%s, error=%v", route, employeeID, busID, err)
		handlers.RespondInternalError(w)
	}
}
