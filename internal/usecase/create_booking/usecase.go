package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
	busRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/bus"
	bookingRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/booking"
	waitlistRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-ShuttleService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ShuttleService/internal/service/capacity"
	"github.com/m04kA/SMC-ShuttleService/pkg/metrics"
)

const op = "create"

// UseCase use case бронирования места на рейс (координатор транзакции бронирования)
type UseCase struct {
	busRepo      BusRepository
	bookingRepo  BookingRepository
	waitlistRepo WaitlistRepository
	validator    Validator
	locker       LockManager
	lockTimeout  time.Duration
	txManager    TransactionManager
	publisher    EventPublisher
	metrics      Metrics
	ids          IDGenerator
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	busRepo BusRepository,
	bookingRepo BookingRepository,
	waitlistRepo WaitlistRepository,
	validator Validator,
	locker LockManager,
	lockTimeout time.Duration,
	txManager TransactionManager,
	publisher EventPublisher,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		busRepo:      busRepo,
		bookingRepo:  bookingRepo,
		waitlistRepo: waitlistRepo,
		validator:    validator,
		locker:       locker,
		lockTimeout:  lockTimeout,
		txManager:    txManager,
		publisher:    publisher,
		metrics:      metrics,
		ids:          UUIDGenerator{},
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// WithIDGenerator подменяет генератор идентификаторов (для тестов)
func (uc *UseCase) WithIDGenerator(ids IDGenerator) *UseCase {
	uc.ids = ids
	return uc
}

// Execute бронирует место на рейс
// Шаги 2-5 выполняются под блокировкой {bus}:{date}: повторное чтение состояния, валидация,
// запись бронирования или постановка в лист ожидания. Событие публикуется после освобождения блокировки.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := uc.precheck(req); err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: employee=%s, bus=%s, date=%s", req.EmployeeID, req.BusID, req.Date)

	resp, err := uc.execLocked(ctx, req)
	if err != nil {
		uc.metrics.IncBooking(op, outcomeOf(err))
		return nil, err
	}

	uc.Notify(ctx, resp)
	return resp, nil
}

// ExecuteHeld бронирует место, когда вызывающая сторона уже держит блокировку ресурса
// Событие не публикуется: после освобождения блокировки вызывающая сторона вызывает Notify
func (uc *UseCase) ExecuteHeld(ctx context.Context, req *Request) (*Response, error) {
	if err := uc.precheck(req); err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: employee=%s, bus=%s, date=%s (lock held by caller)", req.EmployeeID, req.BusID, req.Date)

	resp, err := uc.book(context.WithoutCancel(ctx), req)
	if err != nil {
		uc.metrics.IncBooking(op, outcomeOf(err))
		return nil, err
	}
	return resp, nil
}

// Notify публикует событие по результату бронирования и учитывает исход в метриках
// Ошибка публикации только логируется и не меняет результат операции
func (uc *UseCase) Notify(ctx context.Context, resp *Response) {
	event := notifier.Event{OccurredAt: uc.timeProvider.Now().UTC()}

	switch resp.Outcome {
	case OutcomeConfirmed:
		uc.metrics.IncBooking(op, metrics.OutcomeConfirmed)
		event.Type = notifier.EventBookingConfirmed
		event.BookingID = resp.Booking.ID
		event.EmployeeID = resp.Booking.EmployeeID
		event.BusID = resp.Booking.BusID
		event.Date = resp.Booking.ScheduleDate.String()
		event.Slot = resp.Booking.Slot
	case OutcomeWaitlisted:
		uc.metrics.IncBooking(op, metrics.OutcomeWaitlisted)
		event.Type = notifier.EventBookingWaitlisted
		event.EmployeeID = resp.WaitlistEntry.EmployeeID
		event.BusID = resp.WaitlistEntry.BusID
		event.Date = resp.WaitlistEntry.ScheduleDate.String()
		event.Position = resp.Position
	default:
		return
	}

	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Error("CreateBooking: failed to publish %s for employee=%s: %v", event.Type, event.EmployeeID, err)
	}
}

func (uc *UseCase) precheck(req *Request) error {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return err
	}

	// 2. Режим обслуживания: новые бронирования не принимаются
	if uc.validator.Policy().MaintenanceMode {
		uc.logger.Warn("CreateBooking: rejected, maintenance mode is on")
		return ErrMaintenanceMode
	}

	return nil
}

func (uc *UseCase) execLocked(ctx context.Context, req *Request) (*Response, error) {
	key := domain.ResourceKey(req.BusID, req.Date)

	// 3. Берем блокировку ресурса с ограниченным ожиданием
	l, err := uc.locker.Acquire(ctx, key, uc.lockTimeout)
	if err != nil {
		switch {
		case errors.Is(err, lock.ErrBusy):
			uc.logger.Warn("CreateBooking: resource %s is busy: %v", key, err)
			return nil, err
		case errors.Is(err, lock.ErrUnavailable):
			uc.logger.Error("CreateBooking: lock backend unavailable for %s: %v", key, err)
			return nil, err
		default:
			uc.logger.Warn("CreateBooking: lock acquisition for %s aborted: %v", key, err)
			return nil, fmt.Errorf("%w: acquire lock: %v", ErrInternal, err)
		}
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			uc.logger.Error("CreateBooking: failed to release lock %s: %v", key, err)
		}
	}()

	// Критическая секция не прерывается отменой запроса
	return uc.book(context.WithoutCancel(ctx), req)
}

// book читает свежее состояние, валидирует и записывает результат в одной транзакции
// Вызывается только под блокировкой ресурса
func (uc *UseCase) book(ctx context.Context, req *Request) (*Response, error) {
	now := uc.timeProvider.Now()
	var resp *Response

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 4. Повторно читаем автобус, бронирования сотрудника и загрузку рейса
		bus, err := uc.busRepo.GetByID(txCtx, req.BusID)
		if err != nil && !errors.Is(err, busRepo.ErrBusNotFound) {
			uc.logger.Error("CreateBooking: failed to get bus %s: %v", req.BusID, err)
			return fmt.Errorf("%w: failed to get bus: %v", ErrInternal, err)
		}

		employeeBookings, err := uc.bookingRepo.ListActiveByEmployeeAndDate(txCtx, req.EmployeeID, req.Date)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get bookings of employee=%s: %v", req.EmployeeID, err)
			return fmt.Errorf("%w: failed to get employee bookings: %v", ErrInternal, err)
		}

		busBookings, err := uc.bookingRepo.ListActiveByBusAndDate(txCtx, req.BusID, req.Date)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get bookings of bus=%s: %v", req.BusID, err)
			return fmt.Errorf("%w: failed to get bus bookings: %v", ErrInternal, err)
		}

		// 5. Валидация
		err = uc.validator.Validate(capacity.Input{
			EmployeeID:       req.EmployeeID,
			Date:             req.Date,
			Bus:              bus,
			EmployeeBookings: employeeBookings,
			ActiveCount:      len(busBookings),
			Now:              now,
		})
		switch {
		case err == nil:
			uc.logger.Info("CreateBooking: seat available on bus=%s, %d/%d taken", bus.ID, len(busBookings), bus.Capacity)
			resp, err = uc.confirm(txCtx, req, bus, now)
			return err
		case errors.Is(err, capacity.ErrFull):
			uc.logger.Info("CreateBooking: bus=%s is full (%d/%d), waitlisting employee=%s",
				bus.ID, len(busBookings), bus.Capacity, req.EmployeeID)
			resp, err = uc.waitlist(txCtx, req, bus, now)
			return err
		default:
			uc.logger.Warn("CreateBooking: rejected employee=%s, bus=%s, date=%s: %v", req.EmployeeID, req.BusID, req.Date, err)
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// confirm 6. Создаем активное бронирование с новым идентификатором
func (uc *UseCase) confirm(ctx context.Context, req *Request, bus *domain.Bus, now time.Time) (*Response, error) {
	booking := &domain.Booking{
		ID:           uc.ids.NewID(),
		EmployeeID:   req.EmployeeID,
		BusID:        bus.ID,
		ScheduleDate: req.Date,
		Slot:         bus.Slot,
		Status:       domain.BookingStatusActive,
		CreatedAt:    now.UTC(),
	}

	if err := uc.bookingRepo.Create(ctx, booking); err != nil {
		if errors.Is(err, bookingRepo.ErrDuplicateSlot) {
			uc.logger.Warn("CreateBooking: concurrent booking in slot %s for employee=%s: %v", bus.Slot, req.EmployeeID, err)
			return nil, fmt.Errorf("%w: you already have a %s booking for this date", ErrSlotConflict, bus.Slot)
		}
		uc.logger.Error("CreateBooking: failed to create booking: %v", err)
		return nil, fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
	}

	uc.logger.Info("CreateBooking: confirmed booking id=%s for employee=%s on bus=%s, date=%s",
		booking.ID, booking.EmployeeID, booking.BusID, booking.ScheduleDate)

	return &Response{Outcome: OutcomeConfirmed, Booking: booking}, nil
}

// waitlist 7. Ставим сотрудника в конец очереди; повторный запрос возвращает существующую позицию
func (uc *UseCase) waitlist(ctx context.Context, req *Request, bus *domain.Bus, now time.Time) (*Response, error) {
	existing, err := uc.waitlistRepo.FindWaitingByEmployee(ctx, bus.ID, req.Date, req.EmployeeID)
	if err == nil {
		uc.logger.Info("CreateBooking: employee=%s already waitlisted on bus=%s at position %d",
			req.EmployeeID, bus.ID, existing.Position)
		return &Response{Outcome: OutcomeWaitlisted, WaitlistEntry: existing, Position: existing.Position}, nil
	}
	if !errors.Is(err, waitlistRepo.ErrEntryNotFound) {
		uc.logger.Error("CreateBooking: failed to look up waitlist entry: %v", err)
		return nil, fmt.Errorf("%w: failed to look up waitlist: %v", ErrInternal, err)
	}

	entry := &domain.WaitlistEntry{
		BusID:        bus.ID,
		ScheduleDate: req.Date,
		EmployeeID:   req.EmployeeID,
		Status:       domain.WaitlistStatusWaiting,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}

	// Запись в очереди теряет смысл после отправления рейса
	if departure, err := bus.DepartureOn(req.Date, uc.validator.Policy().Loc()); err == nil {
		expiresAt := departure.UTC()
		entry.ExpiresAt = &expiresAt
	}

	if err := uc.waitlistRepo.Append(ctx, entry); err != nil {
		uc.logger.Error("CreateBooking: failed to append waitlist entry: %v", err)
		return nil, fmt.Errorf("%w: failed to append waitlist entry: %v", ErrInternal, err)
	}

	uc.logger.Info("CreateBooking: employee=%s waitlisted on bus=%s, date=%s at position %d",
		entry.EmployeeID, entry.BusID, entry.ScheduleDate, entry.Position)

	return &Response{Outcome: OutcomeWaitlisted, WaitlistEntry: entry, Position: entry.Position}, nil
}

// outcomeOf исход неуспешной операции для метрик
func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return metrics.OutcomeBusy
	case errors.Is(err, ErrInternal), errors.Is(err, ErrUnavailable):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeRejected
	}
}
