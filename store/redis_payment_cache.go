package store

import (
	"context"
	"errors"
	"time"

	"github.com/BatmanBruc/neural-bot/types"
)

type RedisPaymentCache struct {
	client *RedisClient
	ttl    time.Duration
}

var _ types.PaymentCache = (*RedisPaymentCache)(nil)

func NewRedisPaymentCache(redisClient *RedisClient, ttlHours int) *RedisPaymentCache {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 72 * time.Hour
	}

	return &RedisPaymentCache{
		client: redisClient,
		ttl:    ttl,
	}
}

func (c *RedisPaymentCache) GetPayment(ctx context.Context, paymentID string) (*types.Payment, error) {
	var p types.Payment
	if err := c.client.Get(ctx, c.client.generateKey("payment", paymentID), &p); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (c *RedisPaymentCache) SetPayment(ctx context.Context, p *types.Payment) error {
	return c.client.Set(ctx, c.client.generateKey("payment", p.PaymentID), p, c.ttl)
}

func (c *RedisPaymentCache) DeletePayment(ctx context.Context, paymentID string) error {
	return c.client.Del(ctx, c.client.generateKey("payment", paymentID))
}
