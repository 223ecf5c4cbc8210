package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func itemKey(id string) string { return "item:" + id }

func (c *Cache) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	val, err := c.client.Get(ctx, itemKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var item domain.Item
	if err := json.Unmarshal(val, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Cache) SetItem(ctx context.Context, item *domain.Item, ttl time.Duration) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, itemKey(item.ID.String()), data, ttl).Err()
}

func (c *Cache) InvalidateItem(ctx context.Context, id string) error {
	return c.client.Del(ctx, itemKey(id)).Err()
}
