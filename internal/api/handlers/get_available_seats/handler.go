package get_available_seats

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ShuttleService/internal/api/handlers"
	getAvailableSeats "github.com/m04kA/SMC-ShuttleService/internal/usecase/get_available_seats"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

const (
	msgInvalidDate = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgPastDate    = "дата уже прошла"
)

type Handler struct {
	useCase GetAvailableSeatsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSeatsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/buses?date=YYYY-MM-DD&slot=morning
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	date, err := types.ParseDate(query.Get("date"))
	if err != nil {
		h.logger.Warn("GET /buses - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableSeats.Request{Date: date, Slot: query.Get("slot")})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSeats.ErrInvalidDate):
			h.logger.Warn("GET /buses - Past date: %s", date)
			handlers.RespondBadRequest(w, msgPastDate)

		case errors.Is(err, getAvailableSeats.ErrInvalidInput):
			h.logger.Warn("GET /buses - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("GET /buses - Failed to get available seats: date=%s, error=%v", date, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /buses - date=%s, buses=%d", date, len(result.Buses))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
