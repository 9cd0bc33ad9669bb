package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketnet/internal/models"

	"github.com/go-redis/redis/v8"
)

const productKeyPrefix = "product:"

// deletedMarker replaces a product's entry when it is invalidated so that a
// read-through fill racing the invalidation cannot bring the old copy back.
const deletedMarker = "deleted"

// Client is the product read-through cache
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient connects to Redis and verifies the connection
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return New(rdb, ttl), nil
}

// New wraps an existing redis client
func New(rdb *redis.Client, ttl time.Duration) *Client {
	return &Client{rdb: rdb, ttl: ttl}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping reports whether Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func productKey(id int64) string {
	return fmt.Sprintf("%s%d", productKeyPrefix, id)
}

// GetProduct returns the cached product. ok is false on a miss.
func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, bool, error) {
	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached product: %w", err)
	}

	if string(data) == deletedMarker {
		return nil, false, nil
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		// A corrupt entry is a miss; the caller will overwrite it.
		return nil, false, nil
	}
	return &product, true, nil
}

// SetProduct caches a product for the configured TTL, replacing any entry.
// Writers call it with the committed row.
func (c *Client) SetProduct(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}
	return c.rdb.Set(ctx, productKey(p.ID), data, c.ttl).Err()
}

// FillProduct caches a product read from the store only when no entry exists.
// A fill that lost a race with SetProduct or InvalidateProduct is dropped.
func (c *Client) FillProduct(ctx context.Context, p *models.Product) (bool, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("failed to marshal product: %w", err)
	}
	return c.rdb.SetNX(ctx, productKey(p.ID), data, c.ttl).Result()
}

// InvalidateProduct marks a product as gone for the configured TTL
func (c *Client) InvalidateProduct(ctx context.Context, id int64) error {
	return c.rdb.Set(ctx, productKey(id), deletedMarker, c.ttl).Err()
}
