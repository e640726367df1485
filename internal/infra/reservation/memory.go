package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
)

// MemoryStore резервы в памяти процесса
// Истёкшие записи вычищаются лениво при записи, фонового свипера нет
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]domain.Reservation
	now   func() time.Time
}

// NewMemoryStore создает хранилище; now задаёт часы для очистки истёкших записей
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{items: make(map[string]domain.Reservation), now: now}
}

// Get возвращает резерв по ключу ресурса, в том числе истёкший
func (s *MemoryStore) Get(_ context.Context, key string) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// Put сохраняет или перезаписывает резерв
func (s *MemoryStore) Put(_ context.Context, r *domain.Reservation, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, existing := range s.items {
		if existing.IsExpired(now) {
			delete(s.items, key)
		}
	}

	s.items[r.ResourceKey] = *r
	return nil
}

// Delete удаляет резерв; отсутствие записи не ошибка
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}
