package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options configures the shared connection. Zero values fall back to the
// defaults below.
type Options struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	PingRetries int
}

// Client embeds the go-redis client so repositories can take it as
// goredis.Cmdable and the event code as *goredis.Client.
type Client struct {
	*goredis.Client
}

// NewClient connects and pings the server, retrying with a linear backoff
// while it starts up.
func NewClient(ctx context.Context, opts Options, logger *zap.Logger) (*Client, error) {
	if opts.PoolSize == 0 {
		opts.PoolSize = 10
	}
	if opts.PingRetries == 0 {
		opts.PingRetries = 3
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     opts.PoolSize,
	})

	var err error
	for attempt := 1; attempt <= opts.PingRetries; attempt++ {
		if err = ping(ctx, rdb); err == nil {
			return &Client{Client: rdb}, nil
		}
		logger.Warn("redis not ready", zap.String("addr", opts.Addr), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			rdb.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	rdb.Close()
	return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
}

func ping(ctx context.Context, rdb *goredis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return rdb.Ping(ctx).Err()
}
