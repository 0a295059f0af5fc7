package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const deliveryStream = "deliveries"

// RedisDeliveryQueue is the store-then-broadcast seam: stored messages go
// onto one Redis stream, the delivery worker drains it through a consumer
// group and hands each entry to the event router.
type RedisDeliveryQueue struct {
	log *slog.Logger
	rdb *redis.Client
}

func NewRedisDeliveryQueue(log *slog.Logger, rdb *redis.Client) *RedisDeliveryQueue {
	return &RedisDeliveryQueue{log: log, rdb: rdb}
}

func (q *RedisDeliveryQueue) Publish(ctx context.Context, payload []byte) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: deliveryStream,
		MaxLen: 10000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"data": payload},
	}).Err()
}

func (q *RedisDeliveryQueue) Subscribe(
	ctx context.Context,
	group string,
	handler func(ctx context.Context, messageID string, data []byte) error,
) error {
	err := q.rdb.XGroupCreateMkStream(ctx, deliveryStream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	consumerName := uuid.NewString()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				res, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    group,
					Consumer: consumerName,
					Streams:  []string{deliveryStream, ">"},
					Count:    16,
					Block:    2 * time.Second,
				}).Result()
				if err != nil {
					if err != redis.Nil && ctx.Err() == nil {
						q.log.Warn("delivery queue - read failed", "err", err)
					}
					continue
				}
				for _, stream := range res {
					for _, msg := range stream.Messages {
						raw, ok := msg.Values["data"].(string)
						if !ok {
							continue
						}
						if err := handler(ctx, msg.ID, []byte(raw)); err != nil {
							q.log.Error("delivery queue - handler failed", "message_id", msg.ID, "err", err)
						}
					}
				}
			}
		}
	}()
	return nil
}

func (q *RedisDeliveryQueue) Acknowledge(ctx context.Context, group, messageID string) error {
	return q.rdb.XAck(ctx, deliveryStream, group, messageID).Err()
}

func (q *RedisDeliveryQueue) Delete(ctx context.Context, messageID string) error {
	return q.rdb.XDel(ctx, deliveryStream, messageID).Err()
}
