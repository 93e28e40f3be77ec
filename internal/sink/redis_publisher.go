package sink

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/opendota-tools/internal/shared/pubsub"
)

// RedisPublisher faz PUBLISH em um canal Redis; a chave não é usada
type RedisPublisher struct {
	r       *redis.Client
	channel string
}

func NewRedisPublisher(ctx context.Context, addr, channel string) (*RedisPublisher, error) {
	rdb, err := pubsub.ConnectRedis(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &RedisPublisher{r: rdb, channel: channel}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, _ string, payload []byte) error {
	if err := p.r.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.r.Close()
}
