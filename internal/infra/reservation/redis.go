package reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
)

// DefaultRedisPrefix префикс ключей резервов в Redis
const DefaultRedisPrefix = "shuttle:reservation:"

// RedisStore резервы в Redis; срок жизни ключа равен TTL резерва
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore создает хранилище резервов поверх Redis
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get возвращает резерв по ключу ресурса
func (s *RedisStore) Get(ctx context.Context, key string) (*domain.Reservation, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}

	var r domain.Reservation
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupted, key, err)
	}
	return &r, nil
}

// Put сохраняет резерв с истечением через ttl
func (s *RedisStore) Put(ctx context.Context, r *domain.Reservation, ttl time.Duration) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrCorrupted, r.ResourceKey, err)
	}

	if err := s.client.Set(ctx, s.prefix+r.ResourceKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, r.ResourceKey, err)
	}
	return nil
}

// Delete удаляет резерв; отсутствие ключа не ошибка
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrUnavailable, key, err)
	}
	return nil
}
