package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"headless-storefront/internal/domain"
)

type redisRepo struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedis returns a Repository storing JSON carts under "<prefix>:<id>".
func NewRedis(client *redis.Client, prefix string, logger zerolog.Logger) Repository {
	return &redisRepo{client: client, prefix: prefix, logger: logger}
}

func (r *redisRepo) key(id string) string {
	var b strings.Builder
	b.Grow(len(r.prefix) + 1 + len(id))
	b.WriteString(r.prefix)
	b.WriteString(":")
	b.WriteString(id)
	return b.String()
}

func (r *redisRepo) Get(ctx context.Context, id string) (*domain.Cart, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("cart_id", id).Msg("cart repo: get failed")
		return nil, fmt.Errorf("%w: get cart: %v", domain.ErrUpstream, err)
	}
	var c domain.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		r.logger.Error().Err(err).Str("cart_id", id).Msg("cart repo: decode failed")
		return nil, fmt.Errorf("decode cart %s: %w", id, err)
	}
	if c.Items == nil {
		c.Items = []domain.LineItem{}
	}
	c.ID = id
	return &c, nil
}

func (r *redisRepo) Save(ctx context.Context, c *domain.Cart, ttl time.Duration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", c.ID, err)
	}
	if err := r.client.Set(ctx, r.key(c.ID), data, ttl).Err(); err != nil {
		r.logger.Error().Err(err).Str("cart_id", c.ID).Msg("cart repo: save failed")
		return fmt.Errorf("%w: save cart: %v", domain.ErrUpstream, err)
	}
	r.logger.Debug().Str("cart_id", c.ID).Int("items", len(c.Items)).Str("total", c.Total.String()).Msg("cart repo: saved")
	return nil
}

func (r *redisRepo) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		r.logger.Error().Err(err).Str("cart_id", id).Msg("cart repo: delete failed")
		return fmt.Errorf("%w: delete cart: %v", domain.ErrUpstream, err)
	}
	return nil
}

func (r *redisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
