package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/stackit/backend/internal/metrics"
)

// userChannelPattern matches every per-user channel.
const userChannelPattern = "user_*"

// NewRedisClient connects to redisURL (e.g. "redis://localhost:6379/0") and
// verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// RedisNotifier publishes on Redis so every instance's Relay sees the
// message, not just the local hub.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func (n *RedisNotifier) Publish(ctx context.Context, channel string, payload []byte) error {
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// Publisher delivers a payload to local listeners of channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Relay forwards messages from Redis user channels to a local Publisher.
type Relay struct {
	rdb   *redis.Client
	local Publisher
}

func NewRelay(rdb *redis.Client, local Publisher) *Relay {
	return &Relay{rdb: rdb, local: local}
}

// Run subscribes to every user channel and forwards until ctx is done.
// ready, when non-nil, is closed once the subscription is confirmed.
func (r *Relay) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := r.rdb.PSubscribe(ctx, userChannelPattern)
	defer sub.Close()

	// Receive blocks until Redis confirms the subscription.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", userChannelPattern, err)
	}
	if ready != nil {
		close(ready)
	}
	slog.Info("[Relay] subscribed", "pattern", userChannelPattern)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(msg.Channel, "user_") {
				continue
			}
			metrics.RelayMessagesTotal.Inc()
			if err := r.local.Publish(ctx, msg.Channel, []byte(msg.Payload)); err != nil {
				slog.Warn("[Relay] local publish failed", "channel", msg.Channel, "error", err)
			}
		}
	}
}
