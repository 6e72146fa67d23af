package cart

import (
	"context"
	"time"

	"headless-storefront/internal/domain"
)

// Repository persists whole carts as single values keyed by cart id.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
