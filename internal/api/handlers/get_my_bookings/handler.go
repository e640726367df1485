package get_my_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-ShuttleService/internal/api/handlers"
	"github.com/m04kA/SMC-ShuttleService/internal/api/middleware"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

const (
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingEmployeeID = "отсутствует ID сотрудника"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/employees/me/bookings?date=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := middleware.GetEmployeeID(r.Context())
	if !ok {
		h.logger.Warn("GET /employees/me/bookings - Missing employee ID")
		handlers.RespondUnauthorized(w, msgMissingEmployeeID)
		return
	}

	date, err := types.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.logger.Warn("GET /employees/me/bookings - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.service.GetEmployeeBookings(r.Context(), employeeID, date)
	if err != nil {
		h.logger.Error("GET /employees/me/bookings - Failed to get bookings: employee_id=%s, error=%v", employeeID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /employees/me/bookings - employee_id=%s, date=%s, bookings=%d, waitlist=%d",
		employeeID, date, len(result.Bookings), len(result.Waitlist))
	handlers.RespondJSON(w, http.StatusOK, result)
}
