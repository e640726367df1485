package get_available_seats

import (
	"context"
	"fmt"
)

// UseCase use case для получения свободных мест на рейсах за дату
type UseCase struct {
	busRepo      BusRepository
	bookingRepo  BookingRepository
	waitlistRepo WaitlistRepository
	validator    Validator
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	busRepo BusRepository,
	bookingRepo BookingRepository,
	waitlistRepo WaitlistRepository,
	validator Validator,
	logger Logger,
) *UseCase {
	return &UseCase{
		busRepo:      busRepo,
		bookingRepo:  bookingRepo,
		waitlistRepo: waitlistRepo,
		validator:    validator,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения свободных мест
// Результат информационный: места проверяются заново при бронировании под блокировкой
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSeats: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("GetAvailableSeats: date=%s, slot=%q", req.Date, req.Slot)

	// 2. Дата не должна быть в прошлом
	now := uc.timeProvider.Now()
	if err := validateDate(req.Date, now, uc.validator.Policy().Loc()); err != nil {
		uc.logger.Warn("GetAvailableSeats: date validation failed: %v", err)
		return nil, err
	}

	// 3. Активные рейсы каталога
	buses, err := uc.busRepo.List(ctx, true)
	if err != nil {
		uc.logger.Error("GetAvailableSeats: failed to list buses: %v", err)
		return nil, fmt.Errorf("%w: failed to list buses: %v", ErrInternal, err)
	}
	buses = filterBuses(buses, req.Slot)

	// 4. Загрузка каждого рейса
	result := make([]BusSeats, 0, len(buses))
	for _, bus := range buses {
		bookings, err := uc.bookingRepo.ListActiveByBusAndDate(ctx, bus.ID, req.Date)
		if err != nil {
			uc.logger.Error("GetAvailableSeats: failed to get bookings of bus=%s: %v", bus.ID, err)
			return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		waiting, err := uc.waitlistRepo.ListWaiting(ctx, bus.ID, req.Date)
		if err != nil {
			uc.logger.Error("GetAvailableSeats: failed to get waitlist of bus=%s: %v", bus.ID, err)
			return nil, fmt.Errorf("%w: failed to get waitlist: %v", ErrInternal, err)
		}

		result = append(result, calculateSeats(uc.validator, bus, req.Date, now, len(bookings), len(waiting)))
	}

	uc.logger.Info("GetAvailableSeats: %d buses on %s", len(result), req.Date)

	return &Response{Date: req.Date, Buses: result}, nil
}
