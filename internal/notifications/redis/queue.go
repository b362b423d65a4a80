// Package redis implements the notification queue on a Redis list.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/notifications"
	"github.com/go-redis/redis/v8"
)

// DefaultKey is the list key used when none is configured.
const DefaultKey = "oncall:notifications"

// Queue stores notifications as JSON entries of a capped Redis list.
type Queue struct {
	client   *redis.Client
	key      string
	capacity int
}

// NewQueue creates a queue on key. Capacity below one uses notifications.DefaultQueueCapacity.
func NewQueue(client *redis.Client, key string, capacity int) *Queue {
	if key == "" {
		key = DefaultKey
	}
	if capacity < 1 {
		capacity = notifications.DefaultQueueCapacity
	}
	return &Queue{client: client, key: key, capacity: capacity}
}

func (q *Queue) seqKey() string {
	return q.key + ":seq"
}

// Enqueue pushes n and trims the list to capacity, dropping the oldest entries.
func (q *Queue) Enqueue(ctx context.Context, n *domain.Notification) error {
	id, err := q.client.Incr(ctx, q.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("allocate notification id: %w", err)
	}
	n.ID = id

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	var push *redis.IntCmd
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		push = pipe.RPush(ctx, q.key, payload)
		pipe.LTrim(ctx, q.key, int64(-q.capacity), -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push notification: %w", err)
	}

	if length := push.Val(); length > int64(q.capacity) {
		notifications.RecordDropped(int(length - int64(q.capacity)))
	}
	return nil
}

// Drain reads and deletes the list in one transaction.
func (q *Queue) Drain(ctx context.Context) ([]domain.Notification, error) {
	var rng *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rng = pipe.LRange(ctx, q.key, 0, -1)
		pipe.Del(ctx, q.key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain notifications: %w", err)
	}

	raw := rng.Val()
	out := make([]domain.Notification, 0, len(raw))
	for _, item := range raw {
		var n domain.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Clear deletes the list. The ID sequence is kept.
func (q *Queue) Clear(ctx context.Context) error {
	if err := q.client.Del(ctx, q.key).Err(); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}
