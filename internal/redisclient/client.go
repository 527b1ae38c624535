// Package redisclient provides a read-through cache for catalog data.
// Stock counts are deliberately never served from here: the database row is
// the only source of truth for stock, and everything cached carries a TTL so
// a missed invalidation heals itself.
package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront-service/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
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

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func productKey(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}

func priceKey(productID int64) string {
	return fmt.Sprintf("price:%d", productID)
}

// GetProduct retrieves a cached product, or nil on a miss
func (c *Client) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	raw, err := c.rdb.Get(ctx, productKey(productID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, fmt.Errorf("corrupt cached product %d: %w", productID, err)
	}
	return &product, nil
}

// SetProduct caches a product with a TTL
func (c *Client) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(product.ID), raw, ttl).Err()
}

// GetEffectivePrice retrieves a cached effective price. The bool reports
// whether the key was present.
func (c *Client) GetEffectivePrice(ctx context.Context, productID int64) (int64, bool, error) {
	raw, err := c.rdb.Get(ctx, priceKey(productID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cached price for product %d: %w", productID, err)
	}
	return price, true, nil
}

// SetEffectivePrice caches an effective price with a short TTL. The TTL
// bounds how stale a displayed price can be; checkout always re-resolves.
func (c *Client) SetEffectivePrice(ctx context.Context, productID, price int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, priceKey(productID), strconv.FormatInt(price, 10), ttl).Err()
}

// InvalidateProduct drops all cached keys for a product
func (c *Client) InvalidateProduct(ctx context.Context, productID int64) error {
	return c.rdb.Del(ctx, productKey(productID), priceKey(productID)).Err()
}
