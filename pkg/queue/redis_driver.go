package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDriver keeps the queue in a Redis list: LPUSH to enqueue, BRPOP to
// consume, so payloads come out in FIFO order.
type RedisDriver struct {
	rdb *redis.Client
	key string
}

func NewRedisDriver(addr, password, name string) (*RedisDriver, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("queue/redis: ping %s: %w", addr, err)
	}
	return NewRedisDriverFromClient(rdb, name), nil
}

// NewRedisDriverFromClient reuses an existing client such as the cache's.
func NewRedisDriverFromClient(rdb *redis.Client, name string) *RedisDriver {
	return &RedisDriver{rdb: rdb, key: "cherrydine:queue:" + name}
}

func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, d.key, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	res, err := d.rdb.BRPop(ctx, 5*time.Second, d.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

func (d *RedisDriver) Close() error { return d.rdb.Close() }
