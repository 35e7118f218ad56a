package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Baaaki/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient parses redisURL and checks the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisOrderBroker publishes and subscribes to order events over Redis pub/sub.
type RedisOrderBroker struct {
	client *redis.Client
}

func NewRedisOrderBroker(client *redis.Client) *RedisOrderBroker {
	return &RedisOrderBroker{client: client}
}

func (r *RedisOrderBroker) Publish(ctx context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, OrdersChannel, data).Err()
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published after it returns are never missed.
func (r *RedisOrderBroker) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := r.client.Subscribe(ctx, OrdersChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	events := make(chan OrderEvent, 100)
	sub := newSubscription(events, pubsub.Close)

	go func() {
		defer close(sub.stopped)
		defer close(events)

		ch := pubsub.Channel()
		for {
			select {
			case <-sub.done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event OrderEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Log.Warn("Dropping malformed order event", zap.Error(err))
					continue
				}
				select {
				case events <- event:
				case <-sub.done:
					return
				}
			}
		}
	}()

	return sub, nil
}

// Close is a no-op; the client is shared and closed by its owner.
func (r *RedisOrderBroker) Close() error {
	return nil
}
