package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix префикс ключей блокировок в Redis
const DefaultRedisPrefix = "shuttle:lock:"

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу токена
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisManager распределённая блокировка на SET NX PX
// Аренда (lease) ограничивает время жизни ключа, если процесс упал, не освободив блокировку
type RedisManager struct {
	client       redis.UniversalClient
	prefix       string
	lease        time.Duration
	pollInterval time.Duration
}

// NewRedisManager создает менеджер блокировок поверх Redis
func NewRedisManager(client redis.UniversalClient, prefix string, lease, pollInterval time.Duration) *RedisManager {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisManager{
		client:       client,
		prefix:       prefix,
		lease:        lease,
		pollInterval: pollInterval,
	}
}

// Acquire пытается выставить ключ с уникальным токеном, пока не истечёт timeout
func (m *RedisManager) Acquire(ctx context.Context, key string, timeout time.Duration) (Lock, error) {
	redisKey := m.prefix + key
	token := uuid.NewString()

	err := poll(ctx, key, timeout, m.pollInterval, func(ctx context.Context) (bool, error) {
		return m.client.SetNX(ctx, redisKey, token, m.lease).Result()
	})
	if err != nil {
		return nil, err
	}

	return &redisLock{client: m.client, key: key, redisKey: redisKey, token: token}, nil
}

type redisLock struct {
	client   redis.UniversalClient
	key      string
	redisKey string
	token    string
}

func (l *redisLock) Key() string { return l.key }

func (l *redisLock) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.redisKey}, l.token).Int()
	if err != nil {
		return fmt.Errorf("%w: release %s: %v", ErrUnavailable, l.key, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", ErrNotHeld, l.key)
	}
	return nil
}
