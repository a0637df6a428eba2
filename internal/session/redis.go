package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const mutateRetries = 5

// RedisTable backs a channel table with Redis for multi-instance
// deployments. Expiry rides on native TTLs, so Sweep has nothing to do.
type RedisTable[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisTable[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisTable[T] {
	return &RedisTable[T]{client: client, prefix: prefix, ttl: ttl}
}

func (t *RedisTable[T]) key(id string) string {
	return t.prefix + id
}

func (t *RedisTable[T]) Create(ctx context.Context, id string, data T) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := t.client.Set(ctx, t.key(id), b, t.ttl).Err(); err != nil {
		return fmt.Errorf("session: set: %w", err)
	}
	return nil
}

func (t *RedisTable[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	val, err := t.client.Get(ctx, t.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("session: get: %w", err)
	}

	var data T
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return zero, false, fmt.Errorf("session: unmarshal: %w", err)
	}
	return data, true, nil
}

// Mutate runs fn inside a WATCH/MULTI transaction so racing mutations of the
// same session serialize instead of losing updates. fn may run more than
// once on contention and must stay a pure transition of the decoded copy.
func (t *RedisTable[T]) Mutate(ctx context.Context, id string, fn func(*T) bool) (bool, error) {
	key := t.key(id)
	found := false

	txn := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}

		var data T
		if err := json.Unmarshal([]byte(val), &data); err != nil {
			return err
		}
		keep := fn(&data)
		found = true

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if keep {
				b, err := json.Marshal(data)
				if err != nil {
					return err
				}
				pipe.Set(ctx, key, b, redis.KeepTTL)
			} else {
				pipe.Del(ctx, key)
			}
			return nil
		})
		return err
	}

	for i := 0; i < mutateRetries; i++ {
		err := t.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("session: mutate: %w", err)
		}
		return found, nil
	}
	return false, fmt.Errorf("session: mutate: %w", redis.TxFailedErr)
}

func (t *RedisTable[T]) Delete(ctx context.Context, id string) (bool, error) {
	n, err := t.client.Del(ctx, t.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("session: delete: %w", err)
	}
	return n > 0, nil
}

// NewRedisStore builds a Store over Redis-backed tables.
func NewRedisStore(client *redis.Client) *Store {
	return &Store{
		Phone:    NewRedisTable[PhoneSession](client, "auth:phone:", PhoneTTL),
		Email:    NewRedisTable[EmailSession](client, "auth:email:", EmailTTL),
		Telegram: NewRedisTable[TelegramSession](client, "auth:tg:", TelegramTTL),
	}
}
