package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"headless-storefront/internal/domain"
	cartrepo "headless-storefront/internal/repository/cart"
	"headless-storefront/internal/session"
)

type Service struct {
	store  cartrepo.Repository
	ttl    time.Duration
	logger zerolog.Logger
}

func New(store cartrepo.Repository, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{store: store, ttl: ttl, logger: logger}
}

// TTL is the idle lifetime of a cart; every write restarts it.
func (s *Service) TTL() time.Duration { return s.ttl }

// Get returns the cart for tok. It never fails: a missing token, an unknown
// or expired cart, and cache errors all yield an empty cart.
func (s *Service) Get(ctx context.Context, tok session.Token) *domain.Cart {
	if tok.IsZero() {
		return domain.EmptyCart("")
	}
	c, err := s.store.Get(ctx, tok.String())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Str("cart_id", tok.String()).Msg("cart service: get degraded to empty cart")
		}
		return domain.EmptyCart(tok.String())
	}
	return c
}

// Mutate applies one action and persists the whole cart. When tok is empty a
// new token is minted; the token the cart was saved under is returned.
func (s *Service) Mutate(ctx context.Context, tok session.Token, in MutateInput) (*domain.Cart, session.Token, error) {
	action := strings.ToLower(strings.TrimSpace(in.Action))
	apply, err := s.plan(action, in)
	if err != nil {
		return nil, tok, err
	}

	if tok.IsZero() {
		tok = session.New()
	}
	c, err := s.store.Get(ctx, tok.String())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c = domain.EmptyCart(tok.String())
	case err != nil:
		return nil, tok, err
	}

	if err := apply(c); err != nil {
		return nil, tok, err
	}
	c.Recalculate()
	if err := s.store.Save(ctx, c, s.ttl); err != nil {
		return nil, tok, err
	}
	s.logger.Debug().
		Str("cart_id", c.ID).
		Str("action", action).
		Int("lines", len(c.Items)).
		Str("total", c.Total.String()).
		Msg("cart service: mutated")
	return c, tok, nil
}

// Delete drops the cart entirely.
func (s *Service) Delete(ctx context.Context, tok session.Token) error {
	if tok.IsZero() {
		return nil
	}
	return s.store.Delete(ctx, tok.String())
}

// plan validates the input before any I/O and returns the mutation to apply.
func (s *Service) plan(action string, in MutateInput) (func(*domain.Cart) error, error) {
	switch action {
	case ActionAddItem:
		item, err := normalizeItem(in.Item)
		if err != nil {
			return nil, err
		}
		return func(c *domain.Cart) error { return addItem(c, item) }, nil

	case ActionRemoveItem:
		key, err := targetKey(in)
		if err != nil {
			return nil, err
		}
		return func(c *domain.Cart) error {
			c.RemoveKey(key)
			return nil
		}, nil

	case ActionUpdateQuantity:
		key, err := targetKey(in)
		if err != nil {
			return nil, err
		}
		qty, ok := domain.ParseQuantity(in.Quantity)
		if !ok {
			qty = 1
		}
		if qty > domain.MaxLineQuantity {
			return nil, quantityTooLarge(qty)
		}
		return func(c *domain.Cart) error {
			setQuantity(c, key, qty)
			return nil
		}, nil

	case ActionClear:
		return func(c *domain.Cart) error {
			c.Items = []domain.LineItem{}
			return nil
		}, nil

	case "":
		return nil, fmt.Errorf("%w: action required", domain.ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, action)
	}
}

func normalizeItem(in *ItemInput) (domain.LineItem, error) {
	if in == nil {
		return domain.LineItem{}, fmt.Errorf("%w: item required", domain.ErrInvalidInput)
	}
	id := strings.TrimSpace(string(in.ID))
	if id == "" {
		return domain.LineItem{}, fmt.Errorf("%w: item id required", domain.ErrInvalidInput)
	}
	if in.Price == nil {
		return domain.LineItem{}, fmt.Errorf("%w: item price required", domain.ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return domain.LineItem{}, fmt.Errorf("%w: item price must not be negative", domain.ErrInvalidInput)
	}
	qty, ok := domain.ParseQuantity(in.Quantity)
	if !ok || qty <= 0 {
		qty = 1
	}
	if qty > domain.MaxLineQuantity {
		return domain.LineItem{}, quantityTooLarge(qty)
	}
	variation := make(map[string]string, len(in.Variation))
	for name, value := range in.Variation {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		variation[name] = strings.TrimSpace(value)
	}
	key := strings.TrimSpace(in.Key)
	if key == "" {
		key = DeriveKey(id, variation)
	}
	item := domain.LineItem{
		ID:          id,
		VariationID: strings.TrimSpace(string(in.VariationID)),
		Key:         key,
		Name:        strings.TrimSpace(in.Name),
		Price:       *in.Price,
		Quantity:    qty,
		Images:      in.Images,
	}
	if len(variation) > 0 {
		item.Variation = variation
	}
	return item, nil
}

func targetKey(in MutateInput) (string, error) {
	if key := strings.TrimSpace(in.Key); key != "" {
		return key, nil
	}
	if in.Item != nil {
		if key := strings.TrimSpace(in.Item.Key); key != "" {
			return key, nil
		}
		if id := strings.TrimSpace(string(in.Item.ID)); id != "" {
			return DeriveKey(id, in.Item.Variation), nil
		}
	}
	return "", fmt.Errorf("%w: key required", domain.ErrInvalidInput)
}

func addItem(c *domain.Cart, item domain.LineItem) error {
	if i := c.IndexOf(item.Key); i >= 0 {
		merged := c.Items[i].Quantity + item.Quantity
		if merged > domain.MaxLineQuantity {
			return quantityTooLarge(merged)
		}
		c.Items[i].Quantity = merged
		return nil
	}
	c.Items = append(c.Items, item)
	return nil
}

func quantityTooLarge(qty int) error {
	return fmt.Errorf("%w: quantity %d exceeds %d", domain.ErrInvalidInput, qty, domain.MaxLineQuantity)
}

func setQuantity(c *domain.Cart, key string, qty int) {
	i := c.IndexOf(key)
	if i < 0 {
		return
	}
	if qty <= 0 {
		c.RemoveKey(key)
		return
	}
	c.Items[i].Quantity = qty
}
