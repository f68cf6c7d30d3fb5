package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lapeslabs/foodhub/internal/jobs"
	"github.com/redis/go-redis/v9"
)

// QueueKey is the list carrying pending notification jobs. Producers LPUSH,
// the worker BRPOPs, so delivery is oldest first.
const QueueKey = "foodhub:notifications"

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// this ping function checks redis connectivity

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Enqueue pushes a job onto the queue.
func (c *Client) Enqueue(ctx context.Context, j jobs.Job) error {
	b, err := json.Marshal(j)

	if err != nil {
		return err
	}

	return c.redisdb.LPush(ctx, QueueKey, b).Err()
}

// Dequeue blocks up to timeout for the next job. The second return is false
// when the wait timed out with nothing to do.
func (c *Client) Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, bool, error) {
	res, err := c.redisdb.BRPop(ctx, timeout, QueueKey).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.Job{}, false, nil
		}

		return jobs.Job{}, false, err
	}

	// BRPOP returns [key, value]
	if len(res) != 2 {
		return jobs.Job{}, false, nil
	}

	var j jobs.Job

	err = json.Unmarshal([]byte(res[1]), &j)

	if err != nil {
		return jobs.Job{}, false, err
	}

	return j, true, nil
}

// QueueDepth reports how many jobs are waiting.
func (c *Client) QueueDepth(ctx context.Context) (int64, error) {
	return c.redisdb.LLen(ctx, QueueKey).Result()
}
