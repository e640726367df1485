// Package memory хранилище сущностей в памяти процесса
// Используется при database.driver = "memory" и в тестах; данные не переживают рестарт.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/bus"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// Store общее состояние трёх репозиториев под одним мьютексом
type Store struct {
	mu sync.RWMutex

	buses        map[string]domain.Bus
	bookings     map[string]domain.Booking
	bookingOrder []string
	waitlist     []domain.WaitlistEntry
	nextEntryID  int64
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		buses:    make(map[string]domain.Bus),
		bookings: make(map[string]domain.Booking),
	}
}

// Buses репозиторий каталога автобусов
func (s *Store) Buses() *BusRepository { return &BusRepository{s: s} }

// Bookings репозиторий бронирований
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s: s} }

// Waitlist репозиторий листа ожидания
func (s *Store) Waitlist() *WaitlistRepository { return &WaitlistRepository{s: s} }

// BusRepository каталог автобусов в памяти
type BusRepository struct {
	s *Store
}

// GetByID получает автобус по номеру
func (r *BusRepository) GetByID(_ context.Context, id string) (*domain.Bus, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.buses[id]
	if !ok {
		return nil, bus.ErrBusNotFound
	}
	return &b, nil
}

// List возвращает автобусы, отсортированные по времени отправления
func (r *BusRepository) List(_ context.Context, activeOnly bool) ([]*domain.Bus, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*domain.Bus, 0, len(r.s.buses))
	for _, b := range r.s.buses {
		if activeOnly && !b.Active {
			continue
		}
		b := b
		result = append(result, &b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DepartureTime != result[j].DepartureTime {
			return result[i].DepartureTime < result[j].DepartureTime
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Upsert создает или обновляет автобус, сохраняя исходный created_at
func (r *BusRepository) Upsert(_ context.Context, b *domain.Bus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := *b
	if existing, ok := r.s.buses[b.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	r.s.buses[b.ID] = stored
	return nil
}

// BookingRepository бронирования в памяти
type BookingRepository struct {
	s *Store
}

// Create сохраняет бронирование
// Повторяет уникальный индекс БД: не больше одного активного бронирования на (сотрудник, дата, слот)
func (r *BookingRepository) Create(_ context.Context, b *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.bookings[b.ID]; exists {
		return fmt.Errorf("%w: duplicate booking id %s", booking.ErrExecQuery, b.ID)
	}
	if b.IsActive() {
		for _, existing := range r.s.bookings {
			if existing.IsActive() && existing.EmployeeID == b.EmployeeID &&
				existing.ScheduleDate == b.ScheduleDate && existing.Slot == b.Slot {
				return fmt.Errorf("%w: employee=%s, date=%s, slot=%s", booking.ErrDuplicateSlot, b.EmployeeID, b.ScheduleDate, b.Slot)
			}
		}
	}

	r.s.bookings[b.ID] = *b
	r.s.bookingOrder = append(r.s.bookingOrder, b.ID)
	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return &b, nil
}

// ListActiveByBusAndDate возвращает активные бронирования рейса на дату
func (r *BookingRepository) ListActiveByBusAndDate(_ context.Context, busID string, date types.Date) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return b.BusID == busID && b.ScheduleDate == date && b.IsActive()
	}), nil
}

// ListActiveByEmployeeAndDate возвращает активные бронирования сотрудника на дату
func (r *BookingRepository) ListActiveByEmployeeAndDate(_ context.Context, employeeID string, date types.Date) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return b.EmployeeID == employeeID && b.ScheduleDate == date && b.IsActive()
	}), nil
}

func (r *BookingRepository) filter(match func(b *domain.Booking) bool) []*domain.Booking {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*domain.Booking, 0)
	for _, id := range r.s.bookingOrder {
		b := r.s.bookings[id]
		if match(&b) {
			result = append(result, &b)
		}
	}
	return result
}

// UpdateStatus переводит активное бронирование в новый статус
func (r *BookingRepository) UpdateStatus(_ context.Context, id string, status domain.BookingStatus, at time.Time) error {
	if !status.IsValid() {
		return booking.ErrInvalidStatus
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok || !b.IsActive() {
		return booking.ErrBookingNotFound
	}
	b.Status = status
	if status == domain.BookingStatusCancelled {
		cancelledAt := at
		b.CancelledAt = &cancelledAt
	}
	r.s.bookings[id] = b
	return nil
}

// WaitlistRepository лист ожидания в памяти
type WaitlistRepository struct {
	s *Store
}

// Append добавляет запись в конец очереди рейса и заполняет ID и Position
func (r *WaitlistRepository) Append(_ context.Context, e *domain.WaitlistEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	position := 0
	for _, existing := range r.s.waitlist {
		if existing.BusID == e.BusID && existing.ScheduleDate == e.ScheduleDate && existing.Position > position {
			position = existing.Position
		}
	}

	r.s.nextEntryID++
	e.ID = r.s.nextEntryID
	e.Position = position + 1
	r.s.waitlist = append(r.s.waitlist, *e)
	return nil
}

// GetByID получает запись по ID
func (r *WaitlistRepository) GetByID(_ context.Context, id int64) (*domain.WaitlistEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.waitlist {
		if e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, waitlist.ErrEntryNotFound
}

// ListWaiting возвращает ожидающие записи рейса на дату в порядке позиции
func (r *WaitlistRepository) ListWaiting(_ context.Context, busID string, date types.Date) ([]*domain.WaitlistEntry, error) {
	return r.filter(func(e *domain.WaitlistEntry) bool {
		return e.BusID == busID && e.ScheduleDate == date && e.IsWaiting()
	}), nil
}

// ListWaitingByEmployeeAndDate возвращает ожидающие записи сотрудника на дату
func (r *WaitlistRepository) ListWaitingByEmployeeAndDate(_ context.Context, employeeID string, date types.Date) ([]*domain.WaitlistEntry, error) {
	return r.filter(func(e *domain.WaitlistEntry) bool {
		return e.EmployeeID == employeeID && e.ScheduleDate == date && e.IsWaiting()
	}), nil
}

// FindWaitingByEmployee возвращает ожидающую запись сотрудника на рейс и дату
func (r *WaitlistRepository) FindWaitingByEmployee(_ context.Context, busID string, date types.Date, employeeID string) (*domain.WaitlistEntry, error) {
	entries := r.filter(func(e *domain.WaitlistEntry) bool {
		return e.BusID == busID && e.ScheduleDate == date && e.EmployeeID == employeeID && e.IsWaiting()
	})
	if len(entries) == 0 {
		return nil, waitlist.ErrEntryNotFound
	}
	return entries[0], nil
}

func (r *WaitlistRepository) filter(match func(e *domain.WaitlistEntry) bool) []*domain.WaitlistEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*domain.WaitlistEntry, 0)
	for _, e := range r.s.waitlist {
		if match(&e) {
			e := e
			result = append(result, &e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result
}

// UpdateStatus переводит ожидающую запись в новый статус
func (r *WaitlistRepository) UpdateStatus(_ context.Context, id int64, status domain.WaitlistStatus, at time.Time) error {
	if !status.IsValid() {
		return waitlist.ErrInvalidStatus
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.waitlist {
		if r.s.waitlist[i].ID != id {
			continue
		}
		if !r.s.waitlist[i].IsWaiting() {
			return waitlist.ErrEntryNotFound
		}
		r.s.waitlist[i].Status = status
		r.s.waitlist[i].UpdatedAt = at
		return nil
	}
	return waitlist.ErrEntryNotFound
}
