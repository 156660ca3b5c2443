package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const heartbeatPrefix = "coachhub:worker:heartbeat:"

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps the redis connection the worker uses for liveness signalling.
// The job queue itself lives in Postgres; redis only answers "which workers
// are alive right now".
type Client struct {
	rdb *redis.Client
}

func New(cfg Config) *Client {
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
			PoolSize:     4,
		}),
	}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Heartbeat records that a worker is alive. The key expires on its own, so a
// dead worker disappears after ttl without any cleanup pass.
func (c *Client) Heartbeat(ctx context.Context, workerID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, heartbeatPrefix+workerID, time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
