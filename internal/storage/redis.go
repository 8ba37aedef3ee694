package storage

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// InitRedis opens the Redis connection used for webhook dedup and rate
// limiting. Redis is optional at runtime: callers degrade gracefully when
// this fails.
func InitRedis(host, port, password string, db, poolSize, minIdleConns int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
