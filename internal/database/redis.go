package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisDialTimeout = 5 * time.Second

// ErrRedisURLMissing is returned when Redis is requested without a URL.
var ErrRedisURLMissing = errors.New("redis url must not be empty")

// ConnectRedis opens the client backing the lockout counters, the token
// denylist, the announcement cache and notification pubsub. The client is
// tagged with clientName so it shows up in CLIENT LIST.
func ConnectRedis(ctx context.Context, url, clientName string) (*redis.Client, error) {
	if url == "" {
		return nil, ErrRedisURLMissing
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if clientName != "" {
		opts.ClientName = clientName
	}
	opts.DialTimeout = redisDialTimeout

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
