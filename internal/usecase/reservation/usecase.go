package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
	reservationStore "github.com/m04kA/SMC-ShuttleService/internal/infra/reservation"
	busRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/bus"
	"github.com/m04kA/SMC-ShuttleService/internal/usecase/create_booking"
)

// Исходы операций с резервами для метрик
const (
	outcomeReserved        = "reserved"
	outcomeReservedByOther = "reserved_by_other"
	outcomeConfirmed       = "confirmed"
	outcomeExpired         = "expired"
	outcomeInvalidToken    = "invalid_token"
	outcomeReleased        = "released"
	outcomeRejected        = "rejected"
	outcomeBusy            = "busy"
	outcomeError           = "error"
)

// UseCase двухфазное бронирование: резерв, затем подтверждение
// Резерв не занимает место, а лишь даёт одному сотруднику право первым подтвердить бронирование.
type UseCase struct {
	busRepo      BusRepository
	store        ReservationStore
	bookings     BookingCreator
	locker       LockManager
	cfg          Config
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	busRepo BusRepository,
	store ReservationStore,
	bookings BookingCreator,
	locker LockManager,
	cfg Config,
	metrics Metrics,
	logger Logger,
) *UseCase {
	if cfg.TTL <= 0 {
		cfg.TTL = domain.DefaultReservationTTL
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = domain.DefaultLockAcquireTimeout
	}
	return &UseCase{
		busRepo:      busRepo,
		store:        store,
		bookings:     bookings,
		locker:       locker,
		cfg:          cfg,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Reserve выдает сотруднику резерв на ресурс {bus}:{date} на время TTL
// Если ресурс удерживает чужой неистёкший резерв, возвращает *ReservedByOtherError.
// Повторный Reserve тем же сотрудником продлевает резерв.
func (uc *UseCase) Reserve(ctx context.Context, req *Request) (*ReserveResponse, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("Reserve: validation failed: %v", err)
		return nil, err
	}
	if uc.cfg.MaintenanceMode {
		uc.logger.Warn("Reserve: rejected, maintenance mode is on")
		return nil, ErrMaintenanceMode
	}

	key := domain.ResourceKey(req.BusID, req.Date)
	uc.logger.Info("Reserve: employee=%s, resource=%s", req.EmployeeID, key)

	var resp *ReserveResponse
	err := uc.withLock(ctx, "Reserve", key, func(ctx context.Context) error {
		now := uc.timeProvider.Now()

		bus, err := uc.busRepo.GetByID(ctx, req.BusID)
		if err != nil {
			if errors.Is(err, busRepo.ErrBusNotFound) {
				uc.logger.Warn("Reserve: bus=%s not found", req.BusID)
				return ErrBusNotFound
			}
			uc.logger.Error("Reserve: failed to get bus %s: %v", req.BusID, err)
			return fmt.Errorf("%w: failed to get bus: %v", ErrInternal, err)
		}
		if !bus.IsBookable() {
			uc.logger.Warn("Reserve: bus=%s is not bookable", req.BusID)
			return ErrBusNotFound
		}

		existing, err := uc.load(ctx, "Reserve", key)
		if err != nil {
			return err
		}
		if existing != nil && !existing.IsExpired(now) && existing.EmployeeID != req.EmployeeID {
			left := existing.SecondsLeft(now)
			uc.logger.Info("Reserve: resource=%s is held by employee=%s for %ds", key, existing.EmployeeID, left)
			return &ReservedByOtherError{SecondsLeft: left}
		}

		r := &domain.Reservation{
			ResourceKey: key,
			EmployeeID:  req.EmployeeID,
			Token:       tokenFor(uc.cfg.Secret, key, req.EmployeeID),
			ExpiresAt:   now.Add(uc.cfg.TTL).UTC(),
		}
		if err := uc.store.Put(ctx, r, uc.cfg.TTL); err != nil {
			uc.logger.Error("Reserve: failed to store reservation %s: %v", key, err)
			return storeError(err)
		}

		resp = &ReserveResponse{
			ResourceKey: key,
			Token:       r.Token,
			ExpiresAt:   r.ExpiresAt,
			SecondsLeft: r.SecondsLeft(now),
		}
		return nil
	})
	if err != nil {
		uc.metrics.IncReservation("reserve", outcomeOf(err))
		return nil, err
	}

	uc.metrics.IncReservation("reserve", outcomeReserved)
	uc.logger.Info("Reserve: employee=%s holds resource=%s until %s", req.EmployeeID, key, resp.ExpiresAt.Format(time.RFC3339))
	return resp, nil
}

// Confirm превращает резерв в бронирование
// Токен проверяется до взятия блокировки; резерв удаляется, после чего место бронируется
// в той же критической секции, вместимость проверяется заново.
func (uc *UseCase) Confirm(ctx context.Context, req *ConfirmRequest) (*create_booking.Response, error) {
	if err := validateConfirmRequest(req); err != nil {
		uc.logger.Warn("Confirm: validation failed: %v", err)
		return nil, err
	}
	if uc.cfg.MaintenanceMode {
		uc.logger.Warn("Confirm: rejected, maintenance mode is on")
		return nil, ErrMaintenanceMode
	}

	key := domain.ResourceKey(req.BusID, req.Date)
	uc.logger.Info("Confirm: employee=%s, resource=%s", req.EmployeeID, key)

	// 1. Токен должен быть выдан именно этому сотруднику на этот ресурс
	expected := tokenFor(uc.cfg.Secret, key, req.EmployeeID)
	if !tokenMatches(expected, req.Token) {
		uc.logger.Warn("Confirm: invalid token from employee=%s for resource=%s", req.EmployeeID, key)
		uc.metrics.IncReservation("confirm", outcomeInvalidToken)
		return nil, ErrInvalidToken
	}

	var resp *create_booking.Response
	err := uc.withLock(ctx, "Confirm", key, func(ctx context.Context) error {
		now := uc.timeProvider.Now()

		// 2. Резерв должен существовать и не истечь
		existing, err := uc.load(ctx, "Confirm", key)
		if err != nil {
			return err
		}
		if existing == nil {
			uc.logger.Warn("Confirm: no reservation for resource=%s", key)
			return ErrExpired
		}
		if existing.IsExpired(now) {
			uc.logger.Warn("Confirm: reservation for resource=%s expired at %s", key, existing.ExpiresAt.Format(time.RFC3339))
			if err := uc.store.Delete(ctx, key); err != nil {
				uc.logger.Error("Confirm: failed to delete expired reservation %s: %v", key, err)
			}
			return ErrExpired
		}
		if existing.EmployeeID != req.EmployeeID || !tokenMatches(existing.Token, req.Token) {
			uc.logger.Warn("Confirm: resource=%s is reserved by employee=%s, not %s", key, existing.EmployeeID, req.EmployeeID)
			return ErrInvalidToken
		}

		// 3. Удаляем резерв и бронируем место
		if err := uc.store.Delete(ctx, key); err != nil {
			uc.logger.Error("Confirm: failed to delete reservation %s: %v", key, err)
			return storeError(err)
		}

		resp, err = uc.bookings.ExecuteHeld(ctx, &create_booking.Request{
			EmployeeID: req.EmployeeID,
			BusID:      req.BusID,
			Date:       req.Date,
		})
		return err
	})
	if err != nil {
		uc.metrics.IncReservation("confirm", outcomeOf(err))
		return nil, err
	}

	// Событие бронирования публикуется после освобождения блокировки
	uc.bookings.Notify(ctx, resp)
	uc.metrics.IncReservation("confirm", outcomeConfirmed)
	return resp, nil
}

// Release снимает резерв, если он принадлежит сотруднику
// Идемпотентна: отсутствующий, истёкший или чужой резерв не является ошибкой и не изменяется.
func (uc *UseCase) Release(ctx context.Context, req *Request) error {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("Release: validation failed: %v", err)
		return err
	}

	key := domain.ResourceKey(req.BusID, req.Date)
	uc.logger.Info("Release: employee=%s, resource=%s", req.EmployeeID, key)

	err := uc.withLock(ctx, "Release", key, func(ctx context.Context) error {
		existing, err := uc.load(ctx, "Release", key)
		if err != nil {
			return err
		}
		if existing == nil || existing.EmployeeID != req.EmployeeID {
			uc.logger.Info("Release: nothing to release for employee=%s on resource=%s", req.EmployeeID, key)
			return nil
		}

		if err := uc.store.Delete(ctx, key); err != nil {
			uc.logger.Error("Release: failed to delete reservation %s: %v", key, err)
			return storeError(err)
		}
		uc.logger.Info("Release: reservation %s released by employee=%s", key, req.EmployeeID)
		return nil
	})
	if err != nil {
		uc.metrics.IncReservation("release", outcomeOf(err))
		return err
	}

	uc.metrics.IncReservation("release", outcomeReleased)
	return nil
}

// withLock выполняет fn под блокировкой ресурса; блокировка освобождается на любом пути выхода
func (uc *UseCase) withLock(ctx context.Context, op, key string, fn func(ctx context.Context) error) error {
	l, err := uc.locker.Acquire(ctx, key, uc.cfg.LockTimeout)
	if err != nil {
		switch {
		case errors.Is(err, lock.ErrBusy):
			uc.logger.Warn("%s: resource %s is busy: %v", op, key, err)
			return err
		case errors.Is(err, lock.ErrUnavailable):
			uc.logger.Error("%s: lock backend unavailable for %s: %v", op, key, err)
			return err
		default:
			uc.logger.Warn("%s: lock acquisition for %s aborted: %v", op, key, err)
			return fmt.Errorf("%w: acquire lock: %v", ErrInternal, err)
		}
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			uc.logger.Error("%s: failed to release lock %s: %v", op, key, err)
		}
	}()

	return fn(context.WithoutCancel(ctx))
}

// load читает резерв; отсутствие резерва возвращается как (nil, nil)
func (uc *UseCase) load(ctx context.Context, op, key string) (*domain.Reservation, error) {
	r, err := uc.store.Get(ctx, key)
	if errors.Is(err, reservationStore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		uc.logger.Error("%s: failed to load reservation %s: %v", op, key, err)
		return nil, storeError(err)
	}
	return r, nil
}

func storeError(err error) error {
	if errors.Is(err, reservationStore.ErrUnavailable) {
		return fmt.Errorf("%w: reservation store: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: reservation store: %v", ErrInternal, err)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrReservedByOther):
		return outcomeReservedByOther
	case errors.Is(err, ErrExpired):
		return outcomeExpired
	case errors.Is(err, ErrInvalidToken):
		return outcomeInvalidToken
	case errors.Is(err, ErrBusy):
		return outcomeBusy
	case errors.Is(err, ErrInternal), errors.Is(err, ErrUnavailable), errors.Is(err, create_booking.ErrInternal):
		return outcomeError
	default:
		return outcomeRejected
	}
}
