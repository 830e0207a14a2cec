package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// storageChannel is the pub/sub channel carrying write notifications: the
// cross-process equivalent of the browser's storage event.
const storageChannel = "portfolio:storage"

// Change describes a write performed by some instance sharing the store.
type Change struct {
	Origin   string `json:"origin"`
	Key      string `json:"key"`
	NewValue string `json:"newValue"`
}

// RedisKV is the shared-store implementation backed by Redis. Every Set also
// publishes a Change on the storage channel so other instances learn about the
// write; the instance's own writes are filtered out on the receiving side, so
// notifications behave like the native storage event (other tabs only).
type RedisKV struct {
	client *redis.Client
	origin string
	logger zerolog.Logger
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{
		client: client,
		origin: uuid.New().String(),
		logger: log.With().Str("component", "redisKV").Logger(),
	}
}

// Origin identifies this instance in change notifications.
func (r *RedisKV) Origin() string {
	return r.origin
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	r.notify(ctx, key, value)
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	r.notify(ctx, key, "")
	return nil
}

// notify is best-effort: a dropped notification is healed by the next sync
// poll, so failures are only logged.
func (r *RedisKV) notify(ctx context.Context, key, value string) {
	payload, err := json.Marshal(Change{Origin: r.origin, Key: key, NewValue: value})
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("failed to marshal change notification")
		return
	}
	if err := r.client.Publish(ctx, storageChannel, payload).Err(); err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("failed to publish change notification")
	}
}

// Changes subscribes to the storage channel and delivers writes made by other
// instances. This instance's own writes are dropped here, mirroring how the
// browser only fires the storage event in tabs that did not perform the write.
// The channel closes when ctx is cancelled.
func (r *RedisKV) Changes(ctx context.Context) <-chan Change {
	sub := r.client.Subscribe(ctx, storageChannel)
	out := make(chan Change, 16)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					r.logger.Error().Err(err).Msg("discarding malformed change notification")
					continue
				}
				if change.Origin == r.origin {
					continue
				}
				select {
				case out <- change:
				default:
					// Slow consumer: drop, the sync poll reconciles.
				}
			}
		}
	}()

	return out
}
