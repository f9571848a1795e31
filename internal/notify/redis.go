package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"title-party/internal/config"
	"title-party/internal/game"
)

const defaultChannel = "title-party:changes"

// DialRedis connects to the Redis server named in cfg and checks it answers.
func DialRedis(ctx context.Context, cfg config.Config, logger *zap.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Error("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis: %w", game.ErrUnavailable, err)
	}
	return client, nil
}

// RedisRelay publishes changes on a Redis channel and replays every change
// seen on that channel, including its own, onto a local Bus. It lets several
// server processes share websocket fan-out.
type RedisRelay struct {
	client  *redis.Client
	local   *Bus
	logger  *zap.Logger
	channel string
}

func NewRedisRelay(client *redis.Client, local *Bus, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, local: local, logger: logger, channel: defaultChannel}
}

func (r *RedisRelay) Publish(ctx context.Context, change game.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: redis publish: %w", game.ErrUnavailable, err)
	}
	return nil
}

// Run forwards channel messages to the local bus until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("%w: redis subscribe: %w", game.ErrUnavailable, err)
	}
	messages := sub.Channel()
	r.logger.Info("redis relay subscribed", zap.String("channel", r.channel))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var change game.Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				r.logger.Warn("dropping malformed change", zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			_ = r.local.Publish(ctx, change)
		}
	}
}
