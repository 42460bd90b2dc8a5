package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"microblog/internal/cache"

	"github.com/redis/go-redis/v9"
)

// ErrOutboxEmpty is returned by Pop when no message arrived before the timeout.
var ErrOutboxEmpty = errors.New("mail: outbox empty")

// RedisOutbox queues messages as JSON on a Redis list for an external relay
// to deliver. Messages are pushed on the left and consumed from the right.
type RedisOutbox struct {
	client *redis.Client
	key    string
}

// NewRedisOutbox returns an outbox on key, defaulting to cache.MailOutboxKey.
func NewRedisOutbox(client *redis.Client, key string) *RedisOutbox {
	if key == "" {
		key = cache.MailOutboxKey
	}
	return &RedisOutbox{client: client, key: key}
}

func (o *RedisOutbox) Send(ctx context.Context, msg Message) error {
	err := o.push(ctx, msg)
	record("redis", err)
	return err
}

func (o *RedisOutbox) push(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mail: encode message: %w", err)
	}
	if err := o.client.LPush(ctx, o.key, payload).Err(); err != nil {
		return fmt.Errorf("mail: enqueue message: %w", err)
	}
	return nil
}

// Pop removes the oldest queued message, waiting up to timeout.
func (o *RedisOutbox) Pop(ctx context.Context, timeout time.Duration) (*Message, error) {
	res, err := o.client.BRPop(ctx, timeout, o.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrOutboxEmpty
	}
	if err != nil {
		return nil, err
	}
	// BRPOP replies with [key, value].
	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("mail: decode message: %w", err)
	}
	return &msg, nil
}

// Len returns the number of queued messages.
func (o *RedisOutbox) Len(ctx context.Context) (int64, error) {
	return o.client.LLen(ctx, o.key).Result()
}
