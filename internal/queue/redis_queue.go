package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reelforge/internal/config"
	"reelforge/internal/models"
)

// Redis is a FIFO queue backed by a Redis list. Items are serialized as JSON
// so the API and workers can live in separate processes.
type Redis struct {
	client   *redis.Client
	key      string
	popWait  time.Duration
}

// NewRedis builds a queue client from config.
func NewRedis(cfg config.Config) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	key := cfg.QueueName
	if key == "" {
		key = "queue:convert"
	}
	return &Redis{client: client, key: key, popWait: 2 * time.Second}
}

// NewRedisWithClient builds a queue around an existing client, used by tests.
func NewRedisWithClient(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key, popWait: 100 * time.Millisecond}
}

// Enqueue pushes an item onto the tail of the list.
func (q *Redis) Enqueue(ctx context.Context, item models.QueueItem) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal queue item: %w", err)
	}
	return q.client.RPush(ctx, q.key, raw).Err()
}

// Dequeue blocks on the head of the list until an item arrives or the
// context is cancelled. BLPOP is re-issued in short waves so cancellation is
// observed promptly.
func (q *Redis) Dequeue(ctx context.Context) (models.QueueItem, error) {
	for {
		if err := ctx.Err(); err != nil {
			return models.QueueItem{}, err
		}
		res, err := q.client.BLPop(ctx, q.popWait, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return models.QueueItem{}, err
		}
		// BLPOP returns [key, value].
		if len(res) != 2 {
			return models.QueueItem{}, fmt.Errorf("unexpected BLPOP reply length %d", len(res))
		}
		var item models.QueueItem
		if err := json.Unmarshal([]byte(res[1]), &item); err != nil {
			return models.QueueItem{}, fmt.Errorf("unmarshal queue item: %w", err)
		}
		return item, nil
	}
}

// Depth reports the current list length.
func (q *Redis) Depth(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	return int(n), err
}
