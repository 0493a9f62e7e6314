package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "kitbazar:"
	redisTimeout   = 5 * time.Second
)

// RedisStore shares selections across service instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, connectionString string) (*RedisStore, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis connection string: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w (and failed to close client: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Get treats redis errors as a miss; the shopper then starts a fresh selection.
func (r *RedisStore) Get(ctx context.Context, key string) (*Data, bool) {
	if r == nil || r.client == nil || key == "" || ctx == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, redisSessionKey(key)).Bytes()
	if err != nil {
		return nil, false
	}

	var data Data
	if err := json.Unmarshal(val, &data); err != nil {
		return nil, false
	}

	return &data, true
}

func (r *RedisStore) Set(ctx context.Context, key string, data *Data, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis store is not initialized")
	}
	if key == "" || data == nil {
		return fmt.Errorf("key and data are required")
	}

	val, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	return r.client.Set(ctx, redisSessionKey(key), val, ttl).Err()
}

// SetIfRevision watches the key so a concurrent write between the revision
// check and the set aborts the transaction.
func (r *RedisStore) SetIfRevision(ctx context.Context, key string, expected int64, data *Data, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis store is not initialized")
	}
	if key == "" || data == nil {
		return fmt.Errorf("key and data are required")
	}

	val, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	redisKey := redisSessionKey(key)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current := NoRevision
		raw, err := tx.Get(ctx, redisKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			// Undecodable entries read as a miss in Get, so they count as absent.
			var stored Data
			if json.Unmarshal(raw, &stored) == nil {
				current = stored.Selection.Revision
			}
		}
		if current != expected {
			return ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, val, ttl)
			return nil
		})
		return err
	}, redisKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

func (r *RedisStore) Delete(ctx context.Context, key string) {
	if r == nil || r.client == nil || key == "" || ctx == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	_ = r.client.Del(ctx, redisSessionKey(key)).Err()
}

func (r *RedisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func redisSessionKey(key string) string {
	return redisKeyPrefix + key
}
