package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPingTimeout = 5 * time.Second
	defaultOpTimeout   = 2 * time.Second
)

// Config holds the connection settings of the Redis node backing status
// dedup and the tracking-day lock.
type Config struct {
	Addr     string
	Password string
	DB       int
	// PingTimeout bounds the connectivity check done by Connect.
	PingTimeout time.Duration
	// OpTimeout is applied to every read and write on the connection.
	OpTimeout time.Duration
}

func (c Config) options() *redis.Options {
	op := c.OpTimeout
	if op <= 0 {
		op = defaultOpTimeout
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		ReadTimeout:  op,
		WriteTimeout: op,
	}
}

// Connect opens a client and pings it once. The client is closed again when
// the ping fails.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(cfg.options())

	wait := cfg.PingTimeout
	if wait <= 0 {
		wait = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if err := Ping(pingCtx, client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Ping reports whether the node answers. The readiness check calls it.
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	return nil
}
