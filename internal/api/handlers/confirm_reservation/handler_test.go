package confirm_reservation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ShuttleService/internal/api/middleware"
	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	createBooking "github.com/m04kA/SMC-ShuttleService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ShuttleService/internal/usecase/reservation"
	"github.com/m04kA/SMC-ShuttleService/pkg/logger"
)

type stubUseCase struct {
	resp *createBooking.Response
	err  error
	got  *reservation.ConfirmRequest
}

func (s *stubUseCase) Confirm(_ context.Context, req *reservation.ConfirmRequest) (*createBooking.Response, error) {
	s.got = req
	return s.resp, s.err
}

const body = `{"busId":"101","date":"2025-10-10","token":"tok"}`

func doRequest(h *Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/confirm", strings.NewReader(body))
	r = r.WithContext(middleware.WithEmployeeID(r.Context(), "E1"))
	w := httptest.NewRecorder()
	h.Handle(w, r)
	return w
}

func TestHandle_Confirmed(t *testing.T) {
	uc := &stubUseCase{resp: &createBooking.Response{
		Outcome: createBooking.OutcomeConfirmed,
		Booking: &domain.Booking{ID: "b-1", EmployeeID: "E1", BusID: "101"},
	}}
	h := NewHandler(uc, logger.Nop())

	w := doRequest(h, body)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, uc.got)
	assert.Equal(t, "tok", uc.got.Token)
	assert.Equal(t, "E1", uc.got.EmployeeID)
}

func TestHandle_ConfirmWaitlisted(t *testing.T) {
	h := NewHandler(&stubUseCase{resp: &createBooking.Response{
		Outcome:  createBooking.OutcomeWaitlisted,
		Position: 1,
	}}, logger.Nop())

	assert.Equal(t, http.StatusAccepted, doRequest(h, body).Code)
}

func TestHandle_ConfirmErrors(t *testing.T) {
	cases := map[string]struct {
		err        error
		wantStatus int
	}{
		"invalid token": {reservation.ErrInvalidToken, http.StatusForbidden},
		"expired":       {reservation.ErrExpired, http.StatusGone},
		"maintenance":   {reservation.ErrMaintenanceMode, http.StatusServiceUnavailable},
		"slot conflict": {createBooking.ErrSlotConflict, http.StatusConflict},
		"cutoff":        {createBooking.ErrCutoffPassed, http.StatusConflict},
		"busy":          {reservation.ErrBusy, http.StatusServiceUnavailable},
		"internal":      {createBooking.ErrInternal, http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewHandler(&stubUseCase{err: tc.err}, logger.Nop())
			assert.Equal(t, tc.wantStatus, doRequest(h, body).Code)
		})
	}
}

func TestHandle_ConfirmRequiresToken(t *testing.T) {
	uc := &stubUseCase{}
	h := NewHandler(uc, logger.Nop())

	assert.Equal(t, http.StatusBadRequest, doRequest(h, `{"busId":"101","date":"2025-10-10"}`).Code)
	assert.Nil(t, uc.got)
}
