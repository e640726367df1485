package get_bus_bookings

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ShuttleService/internal/api/handlers"
	"github.com/m04kA/SMC-ShuttleService/internal/service/bookings"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

const (
	msgInvalidDate = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgBusNotFound = "автобус не найден"
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

// Handle GET /api/v1/buses/{busId}/bookings?date=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	busID := mux.Vars(r)["busId"]

	date, err := types.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.logger.Warn("GET /buses/{busId}/bookings - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.service.GetBusBookings(r.Context(), busID, date)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /buses/{busId}/bookings - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, bookings.ErrBusNotFound):
			h.logger.Warn("GET /buses/{busId}/bookings - Bus not found: bus_id=%s", busID)
			handlers.RespondNotFound(w, msgBusNotFound)

		default:
			h.logger.Error("GET /buses/{busId}/bookings - Failed to get bookings: bus_id=%s, error=%v", busID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /buses/{busId}/bookings - bus_id=%s, date=%s, taken=%d/%d",
		busID, date, result.Taken, result.Capacity)
	handlers.RespondJSON(w, http.StatusOK, result)
}
