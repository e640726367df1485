package cancel_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
	bookingStorage "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/booking"
	busRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/bus"
	waitlistRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-ShuttleService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ShuttleService/internal/service/capacity"
	"github.com/m04kA/SMC-ShuttleService/pkg/metrics"
)

// UseCase use case отмены бронирования или записи в листе ожидания
// При отмене бронирования в той же критической секции продвигается очередь
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

// Execute отменяет бронирование сотрудника на рейс и дату
// Если бронирования нет, отменяет его запись в листе ожидания (без продвижения очереди).
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CancelBooking: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("CancelBooking: employee=%s, bus=%s, date=%s", req.EmployeeID, req.BusID, req.Date)

	resp, err := uc.execLocked(ctx, req)
	if err != nil {
		uc.metrics.IncBooking("cancel", outcomeOf(err))
		return nil, err
	}

	uc.notify(ctx, resp)
	return resp, nil
}

func (uc *UseCase) execLocked(ctx context.Context, req *Request) (*Response, error) {
	key := domain.ResourceKey(req.BusID, req.Date)

	l, err := uc.locker.Acquire(ctx, key, uc.lockTimeout)
	if err != nil {
		switch {
		case errors.Is(err, lock.ErrBusy):
			uc.logger.Warn("CancelBooking: resource %s is busy: %v", key, err)
			return nil, err
		case errors.Is(err, lock.ErrUnavailable):
			uc.logger.Error("CancelBooking: lock backend unavailable for %s: %v", key, err)
			return nil, err
		default:
			uc.logger.Warn("CancelBooking: lock acquisition for %s aborted: %v", key, err)
			return nil, fmt.Errorf("%w: acquire lock: %v", ErrInternal, err)
		}
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			uc.logger.Error("CancelBooking: failed to release lock %s: %v", key, err)
		}
	}()

	return uc.cancel(context.WithoutCancel(ctx), req)
}

func (uc *UseCase) cancel(ctx context.Context, req *Request) (*Response, error) {
	now := uc.timeProvider.Now()
	var resp *Response

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Ищем активное бронирование сотрудника на этот рейс
		busBookings, err := uc.bookingRepo.ListActiveByBusAndDate(txCtx, req.BusID, req.Date)
		if err != nil {
			uc.logger.Error("CancelBooking: failed to get bookings of bus=%s: %v", req.BusID, err)
			return fmt.Errorf("%w: failed to get bus bookings: %v", ErrInternal, err)
		}

		var booking *domain.Booking
		for _, b := range busBookings {
			if b.EmployeeID == req.EmployeeID {
				booking = b
				break
			}
		}

		if booking != nil {
			resp, err = uc.cancelBooking(txCtx, booking, now)
			return err
		}

		// 2. Бронирования нет: ищем запись в листе ожидания
		entry, err := uc.waitlistRepo.FindWaitingByEmployee(txCtx, req.BusID, req.Date, req.EmployeeID)
		if errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			uc.logger.Warn("CancelBooking: nothing to cancel for employee=%s, bus=%s, date=%s", req.EmployeeID, req.BusID, req.Date)
			return ErrNotFound
		}
		if err != nil {
			uc.logger.Error("CancelBooking: failed to look up waitlist entry: %v", err)
			return fmt.Errorf("%w: failed to look up waitlist: %v", ErrInternal, err)
		}

		if err := uc.waitlistRepo.UpdateStatus(txCtx, entry.ID, domain.WaitlistStatusCancelled, now.UTC()); err != nil {
			uc.logger.Error("CancelBooking: failed to cancel waitlist entry id=%d: %v", entry.ID, err)
			return fmt.Errorf("%w: failed to cancel waitlist entry: %v", ErrInternal, err)
		}
		entry.Status = domain.WaitlistStatusCancelled
		entry.UpdatedAt = now.UTC()

		uc.logger.Info("CancelBooking: waitlist entry id=%d (position %d) cancelled", entry.ID, entry.Position)
		resp = &Response{Outcome: OutcomeWaitlistCancelled, WaitlistEntry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// cancelBooking отменяет бронирование и продвигает очередь освободившимся местом
func (uc *UseCase) cancelBooking(ctx context.Context, booking *domain.Booking, now time.Time) (*Response, error) {
	if err := uc.bookingRepo.UpdateStatus(ctx, booking.ID, domain.BookingStatusCancelled, now.UTC()); err != nil {
		uc.logger.Error("CancelBooking: failed to cancel booking id=%s: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: failed to cancel booking: %v", ErrInternal, err)
	}
	cancelledAt := now.UTC()
	booking.Status = domain.BookingStatusCancelled
	booking.CancelledAt = &cancelledAt

	uc.logger.Info("CancelBooking: booking id=%s cancelled", booking.ID)

	resp := &Response{Outcome: OutcomeBookingCancelled, Booking: booking}
	if err := uc.promote(ctx, booking.BusID, booking, now, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// promote 3. Отдаёт освободившееся место первой подходящей записи очереди (FIFO)
// Истёкшие записи и записи сотрудников, которые уже не могут занять место в этом слоте, снимаются с очереди.
// Если место занять нельзя вовсе (рейс заполнен, запись закрыта, рейс снят), очередь не трогается.
func (uc *UseCase) promote(ctx context.Context, busID string, freed *domain.Booking, now time.Time, resp *Response) error {
	date := freed.ScheduleDate

	bus, err := uc.busRepo.GetByID(ctx, busID)
	if err != nil {
		if errors.Is(err, busRepo.ErrBusNotFound) {
			uc.logger.Warn("CancelBooking: bus=%s not in catalog, skipping promotion", busID)
			return nil
		}
		uc.logger.Error("CancelBooking: failed to get bus %s: %v", busID, err)
		return fmt.Errorf("%w: failed to get bus: %v", ErrInternal, err)
	}

	waiting, err := uc.waitlistRepo.ListWaiting(ctx, busID, date)
	if err != nil {
		uc.logger.Error("CancelBooking: failed to list waitlist of bus=%s: %v", busID, err)
		return fmt.Errorf("%w: failed to list waitlist: %v", ErrInternal, err)
	}
	if len(waiting) == 0 {
		return nil
	}

	busBookings, err := uc.bookingRepo.ListActiveByBusAndDate(ctx, busID, date)
	if err != nil {
		uc.logger.Error("CancelBooking: failed to get bookings of bus=%s: %v", busID, err)
		return fmt.Errorf("%w: failed to get bus bookings: %v", ErrInternal, err)
	}

	for _, entry := range waiting {
		if entry.IsExpired(now) {
			if err := uc.drop(ctx, entry, now, resp, "expired"); err != nil {
				return err
			}
			continue
		}

		employeeBookings, err := uc.bookingRepo.ListActiveByEmployeeAndDate(ctx, entry.EmployeeID, date)
		if err != nil {
			uc.logger.Error("CancelBooking: failed to get bookings of employee=%s: %v", entry.EmployeeID, err)
			return fmt.Errorf("%w: failed to get employee bookings: %v", ErrInternal, err)
		}

		err = uc.validator.Validate(capacity.Input{
			EmployeeID:       entry.EmployeeID,
			Date:             date,
			Bus:              bus,
			EmployeeBookings: employeeBookings,
			ActiveCount:      len(busBookings),
			Now:              now,
		})
		switch {
		case err == nil:
			err := uc.convert(ctx, entry, bus, now, resp)
			if !errors.Is(err, bookingStorage.ErrDuplicateSlot) {
				return err
			}
			// Сотрудник успел занять слот на другом рейсе под другой блокировкой
			if err := uc.drop(ctx, entry, now, resp, err.Error()); err != nil {
				return err
			}
		case errors.Is(err, capacity.ErrSlotConflict), errors.Is(err, capacity.ErrDailyLimitExceeded):
			if err := uc.drop(ctx, entry, now, resp, err.Error()); err != nil {
				return err
			}
		default:
			uc.logger.Info("CancelBooking: promotion on bus=%s stopped: %v", busID, err)
			return nil
		}
	}

	return nil
}

// convert создает бронирование для записи очереди и помечает её converted
func (uc *UseCase) convert(ctx context.Context, entry *domain.WaitlistEntry, bus *domain.Bus, now time.Time, resp *Response) error {
	promoted := &domain.Booking{
		ID:           uc.ids.NewID(),
		EmployeeID:   entry.EmployeeID,
		BusID:        bus.ID,
		ScheduleDate: entry.ScheduleDate,
		Slot:         bus.Slot,
		Status:       domain.BookingStatusActive,
		CreatedAt:    now.UTC(),
	}

	if err := uc.bookingRepo.Create(ctx, promoted); err != nil {
		if errors.Is(err, bookingStorage.ErrDuplicateSlot) {
			uc.logger.Warn("CancelBooking: employee=%s already holds the %s slot, skipping: %v", entry.EmployeeID, bus.Slot, err)
			return err
		}
		uc.logger.Error("CancelBooking: failed to create booking for promoted employee=%s: %v", entry.EmployeeID, err)
		return fmt.Errorf("%w: failed to create promoted booking: %v", ErrInternal, err)
	}

	if err := uc.waitlistRepo.UpdateStatus(ctx, entry.ID, domain.WaitlistStatusConverted, now.UTC()); err != nil {
		uc.logger.Error("CancelBooking: failed to convert waitlist entry id=%d: %v", entry.ID, err)
		return fmt.Errorf("%w: failed to convert waitlist entry: %v", ErrInternal, err)
	}
	entry.Status = domain.WaitlistStatusConverted
	entry.UpdatedAt = now.UTC()

	uc.logger.Info("CancelBooking: promoted employee=%s from position %d, booking id=%s",
		entry.EmployeeID, entry.Position, promoted.ID)

	resp.Promoted = promoted
	resp.PromotedEntry = entry
	return nil
}

// drop снимает запись с очереди без продвижения
func (uc *UseCase) drop(ctx context.Context, entry *domain.WaitlistEntry, now time.Time, resp *Response, reason string) error {
	if err := uc.waitlistRepo.UpdateStatus(ctx, entry.ID, domain.WaitlistStatusCancelled, now.UTC()); err != nil {
		uc.logger.Error("CancelBooking: failed to drop waitlist entry id=%d: %v", entry.ID, err)
		return fmt.Errorf("%w: failed to drop waitlist entry: %v", ErrInternal, err)
	}
	entry.Status = domain.WaitlistStatusCancelled
	entry.UpdatedAt = now.UTC()

	uc.logger.Info("CancelBooking: dropped waitlist entry id=%d of employee=%s (position %d): %s",
		entry.ID, entry.EmployeeID, entry.Position, reason)

	resp.Dropped = append(resp.Dropped, entry)
	return nil
}

// notify публикует события после освобождения блокировки
func (uc *UseCase) notify(ctx context.Context, resp *Response) {
	occurredAt := uc.timeProvider.Now().UTC()
	events := make([]notifier.Event, 0, 2+len(resp.Dropped))

	switch resp.Outcome {
	case OutcomeBookingCancelled:
		uc.metrics.IncBooking("cancel", metrics.OutcomeCancelled)
		events = append(events, bookingEvent(notifier.EventBookingCancelled, resp.Booking, occurredAt))
	case OutcomeWaitlistCancelled:
		uc.metrics.IncBooking("cancel", metrics.OutcomeCancelled)
		events = append(events, waitlistEvent(resp.WaitlistEntry, occurredAt))
	}

	for _, entry := range resp.Dropped {
		events = append(events, waitlistEvent(entry, occurredAt))
	}

	if resp.Promoted != nil {
		uc.metrics.IncBooking("promote", metrics.OutcomePromoted)
		event := bookingEvent(notifier.EventBookingPromoted, resp.Promoted, occurredAt)
		event.Position = resp.PromotedEntry.Position
		events = append(events, event)
	}

	for _, event := range events {
		if err := uc.publisher.Publish(ctx, event); err != nil {
			uc.logger.Error("CancelBooking: failed to publish %s for employee=%s: %v", event.Type, event.EmployeeID, err)
		}
	}
}

func bookingEvent(t notifier.EventType, b *domain.Booking, at time.Time) notifier.Event {
	return notifier.Event{
		Type:       t,
		BookingID:  b.ID,
		EmployeeID: b.EmployeeID,
		BusID:      b.BusID,
		Date:       b.ScheduleDate.String(),
		Slot:       b.Slot,
		OccurredAt: at,
	}
}

func waitlistEvent(e *domain.WaitlistEntry, at time.Time) notifier.Event {
	return notifier.Event{
		Type:       notifier.EventWaitlistCancelled,
		EmployeeID: e.EmployeeID,
		BusID:      e.BusID,
		Date:       e.ScheduleDate.String(),
		Position:   e.Position,
		OccurredAt: at,
	}
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
