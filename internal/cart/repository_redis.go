package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxWatchRetries = 5

// RedisRepository stores each cart as one JSON value under cart:<kind>:<id>.
// Guest carts expire after guestTTL of inactivity; customer carts never expire.
type RedisRepository struct {
	client   *redis.Client
	guestTTL time.Duration
}

func NewRedisRepository(client *redis.Client, guestTTL time.Duration) *RedisRepository {
	return &RedisRepository{client: client, guestTTL: guestTTL}
}

func redisKey(key Key) string {
	return fmt.Sprintf("cart:%s:%s", key.Kind, key.ID)
}

func (r *RedisRepository) ttl(key Key) time.Duration {
	if key.Kind == KeySession {
		return r.guestTTL
	}
	return 0
}

func decodeCart(raw string) (*Cart, error) {
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []Line{}
	}
	return &c, nil
}

func (r *RedisRepository) Get(ctx context.Context, key Key) (*Cart, error) {
	raw, err := r.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("get cart %s: %w", key, err)
	}
	return decodeCart(raw)
}

// Mutate uses WATCH/MULTI so a concurrent writer forces a retry instead of a
// lost update.
func (r *RedisRepository) Mutate(ctx context.Context, key Key, create bool, fn func(*Cart) error) (*Cart, error) {
	rk := redisKey(key)
	var out *Cart

	apply := func(tx *redis.Tx) error {
		var c *Cart
		raw, err := tx.Get(ctx, rk).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if !create {
				return notFound(key)
			}
			c = newCart(key, now())
		case err != nil:
			return err
		default:
			if c, err = decodeCart(raw); err != nil {
				return err
			}
		}

		if err := fn(c); err != nil {
			return err
		}
		c.recalculate(now())

		payload, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, payload, r.ttl(key))
			return nil
		})
		if err == nil {
			out = c
		}
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, apply, rk)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("save cart %s: too much contention", key)
}

func (r *RedisRepository) Delete(ctx context.Context, key Key) error {
	if err := r.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("delete cart %s: %w", key, err)
	}
	return nil
}

// DeleteIfUnchanged watches the key so a write racing the comparison aborts
// the delete.
func (r *RedisRepository) DeleteIfUnchanged(ctx context.Context, key Key, updatedAt time.Time) error {
	rk := redisKey(key)
	check := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, rk).Result()
		if errors.Is(err, redis.Nil) {
			return ErrChanged
		}
		if err != nil {
			return err
		}
		c, err := decodeCart(raw)
		if err != nil {
			return err
		}
		if !c.UpdatedAt.Equal(updatedAt) {
			return ErrChanged
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, rk)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, check, rk)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrChanged
	}
	if err != nil && !errors.Is(err, ErrChanged) {
		return fmt.Errorf("delete cart %s: %w", key, err)
	}
	return err
}
