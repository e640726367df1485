package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/booking"
	busRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/bus"
	"github.com/m04kA/SMC-ShuttleService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// Service сервис чтения бронирований и листа ожидания
// Чтение идёт без блокировки ресурса: каждый ответ собирается в одной read-only транзакции
type Service struct {
	busRepo      BusRepository
	bookingRepo  BookingRepository
	waitlistRepo WaitlistRepository
	txManager    TransactionManager
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	busRepo BusRepository,
	bookingRepo BookingRepository,
	waitlistRepo WaitlistRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		busRepo:      busRepo,
		bookingRepo:  bookingRepo,
		waitlistRepo: waitlistRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// GetByID получает бронирование по ID
// Сотрудник может видеть только своё бронирование
func (s *Service) GetByID(ctx context.Context, id string, employeeID string) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%s for employee=%s", id, employeeID)

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%s not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if booking.EmployeeID != employeeID {
		s.logger.Warn("GetByID: access denied for employee=%s to booking id=%s", employeeID, id)
		return nil, ErrAccessDenied
	}

	s.logger.Info("GetByID: successfully fetched booking id=%s", id)
	return models.FromDomainBooking(booking), nil
}

// GetBusBookings возвращает состав рейса на дату: активные бронирования и очередь
func (s *Service) GetBusBookings(ctx context.Context, busID string, date types.Date) (*models.BusBookingsResponse, error) {
	s.logger.Info("GetBusBookings: bus=%s, date=%s", busID, date)

	if strings.TrimSpace(busID) == "" || date.IsZero() {
		return nil, fmt.Errorf("%w: bus id and date are required", ErrInvalidInput)
	}

	var (
		bus      *domain.Bus
		bookings []*domain.Booking
		waiting  []*domain.WaitlistEntry
	)
	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error

		bus, err = s.busRepo.GetByID(txCtx, busID)
		if err != nil {
			if errors.Is(err, busRepo.ErrBusNotFound) {
				s.logger.Warn("GetBusBookings: bus=%s not found", busID)
				return ErrBusNotFound
			}
			s.logger.Error("GetBusBookings: failed to get bus %s: %v", busID, err)
			return fmt.Errorf("%w: failed to get bus: %v", ErrInternal, err)
		}

		bookings, err = s.bookingRepo.ListActiveByBusAndDate(txCtx, busID, date)
		if err != nil {
			s.logger.Error("GetBusBookings: failed to list bookings of bus=%s: %v", busID, err)
			return fmt.Errorf("%w: failed to list bookings: %v", ErrInternal, err)
		}

		waiting, err = s.waitlistRepo.ListWaiting(txCtx, busID, date)
		if err != nil {
			s.logger.Error("GetBusBookings: failed to list waitlist of bus=%s: %v", busID, err)
			return fmt.Errorf("%w: failed to list waitlist: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("GetBusBookings: bus=%s, date=%s: %d/%d taken, %d waiting", busID, date, len(bookings), bus.Capacity, len(waiting))
	return models.FromDomainBus(bus, date, bookings, waiting), nil
}

// GetEmployeeBookings возвращает активные бронирования и записи в очередях сотрудника на дату
func (s *Service) GetEmployeeBookings(ctx context.Context, employeeID string, date types.Date) (*models.EmployeeBookingsResponse, error) {
	s.logger.Info("GetEmployeeBookings: employee=%s, date=%s", employeeID, date)

	if strings.TrimSpace(employeeID) == "" || date.IsZero() {
		return nil, fmt.Errorf("%w: employee id and date are required", ErrInvalidInput)
	}

	var (
		bookings []*domain.Booking
		waiting  []*domain.WaitlistEntry
	)
	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error

		bookings, err = s.bookingRepo.ListActiveByEmployeeAndDate(txCtx, employeeID, date)
		if err != nil {
			s.logger.Error("GetEmployeeBookings: failed to list bookings of employee=%s: %v", employeeID, err)
			return fmt.Errorf("%w: failed to list bookings: %v", ErrInternal, err)
		}

		waiting, err = s.waitlistRepo.ListWaitingByEmployeeAndDate(txCtx, employeeID, date)
		if err != nil {
			s.logger.Error("GetEmployeeBookings: failed to list waitlist of employee=%s: %v", employeeID, err)
			return fmt.Errorf("%w: failed to list waitlist: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("GetEmployeeBookings: employee=%s has %d bookings and %d waitlist entries on %s",
		employeeID, len(bookings), len(waiting), date)
	return models.FromDomainEmployee(employeeID, date, bookings, waiting), nil
}
