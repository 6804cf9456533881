// Package redis holds the escalation queue. Terminal RPC failures are
// parked here, grouped by classification, for operator triage.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantforge/forge/internal/core/domain"
)

// Client wraps Redis operations for the escalation queue.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Escalation is a terminal failure parked for operator triage.
type Escalation struct {
	ID       string          `json:"id"`
	Service  string          `json:"service"`
	Method   string          `json:"method"`
	Category domain.Category `json:"category"`
	Message  string          `json:"message"`
	Attempts int             `json:"attempts"`
	RaisedAt time.Time       `json:"raised_at"`
}

func queueKey(category domain.Category) string {
	return fmt.Sprintf("escalations:%s", category)
}

// PushEscalation adds a failure to its category queue, oldest first.
func (c *Client) PushEscalation(ctx context.Context, esc *Escalation) error {
	payload, err := json.Marshal(esc)
	if err != nil {
		return fmt.Errorf("failed to encode escalation: %w", err)
	}

	key := queueKey(esc.Category)
	score := float64(esc.RaisedAt.UnixMilli())

	if err := c.rdb.ZAdd(ctx, key, redis.Z{Score: score, Member: string(payload)}).Err(); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// PopEscalation pops the oldest escalation in a category.
func (c *Client) PopEscalation(
	ctx context.Context,
	category domain.Category,
) (*Escalation, bool, error) {
	key := queueKey(category)

	results, err := c.rdb.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return nil, false, fmt.Errorf("zrange failed: %w", err)
	}

	if len(results) == 0 {
		return nil, false, nil
	}

	member := results[0].Member.(string)

	var esc Escalation
	if err := json.Unmarshal([]byte(member), &esc); err != nil {
		return nil, false, fmt.Errorf("invalid escalation payload: %w", err)
	}

	if err := c.rdb.ZRem(ctx, key, member).Err(); err != nil {
		return nil, false, fmt.Errorf("zrem failed: %w", err)
	}

	return &esc, true, nil
}

// QueueLen returns the number of pending escalations in a category.
func (c *Client) QueueLen(ctx context.Context, category domain.Category) (int64, error) {
	n, err := c.rdb.ZCard(ctx, queueKey(category)).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return n, nil
}

// PendingByCategory returns queue depths for every known category.
func (c *Client) PendingByCategory(ctx context.Context) (map[domain.Category]int64, error) {
	out := make(map[domain.Category]int64)
	for _, cat := range []domain.Category{
		domain.CategoryAPIError,
		domain.CategoryCodeError,
		domain.CategoryResourceError,
		domain.CategoryUnknown,
	} {
		n, err := c.QueueLen(ctx, cat)
		if err != nil {
			return nil, err
		}
		out[cat] = n
	}
	return out, nil
}

// ClearQueue removes all escalations in a category.
func (c *Client) ClearQueue(ctx context.Context, category domain.Category) error {
	return c.rdb.Del(ctx, queueKey(category)).Err()
}
