package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/roster-api/pkg/config"
)

const pingTimeout = 5 * time.Second

// NewRedis returns the client backing the roster change bus. Redis is
// used here for pub/sub fan-out only, so every live subscription holds
// one dedicated connection besides the shared pool.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		// Each teacher session pins a pub/sub connection; keep a couple
		// of idle ones ready for session churn.
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
