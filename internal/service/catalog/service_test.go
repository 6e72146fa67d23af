package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"headless-storefront/internal/commerce"
	"headless-storefront/internal/domain"
)

type stubProducts struct {
	product  commerce.Product
	failOn   int64
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	calls    []int64
}

func (s *stubProducts) GetProduct(_ context.Context, id int64) (*commerce.Product, error) {
	if id != s.product.ID {
		return nil, domain.ErrNotFound
	}
	p := s.product
	return &p, nil
}

func (s *stubProducts) GetVariation(ctx context.Context, _ int64, variationID int64) (*commerce.Variation, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	s.mu.Lock()
	s.calls = append(s.calls, variationID)
	s.mu.Unlock()

	// later variations finish first
	select {
	case <-time.After(time.Duration(200-variationID) * time.Millisecond / 10):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if variationID == s.failOn {
		return nil, fmt.Errorf("%w: status 500", domain.ErrUpstream)
	}
	return &commerce.Variation{
		ID:         variationID,
		Image:      &commerce.Image{Src: fmt.Sprintf("https://cdn/v%d.jpg", variationID)},
		Attributes: []commerce.Attribute{{Name: "Color", Option: fmt.Sprintf("c%d", variationID)}},
	}, nil
}

func newStub() *stubProducts {
	return &stubProducts{product: commerce.Product{
		ID:         42,
		Name:       "Shirt",
		Images:     []commerce.Image{{Src: "https://cdn/p.jpg"}},
		Variations: []int64{101, 102, 103, 104, 105, 106},
	}}
}

func TestVariantImages_KeepsOrder(t *testing.T) {
	stub := newStub()
	svc := New(stub, zerolog.Nop())

	res, err := svc.VariantImages(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn/p.jpg"}, res.ProductImages)
	require.Len(t, res.Variations, 6)
	for i, v := range res.Variations {
		want := stub.product.Variations[i]
		require.Equal(t, want, v.VariationID)
		require.Equal(t, fmt.Sprintf("https://cdn/v%d.jpg", want), v.Image)
		require.Equal(t, fmt.Sprintf("c%d", want), v.Attributes["Color"])
	}
	require.LessOrEqual(t, stub.peak.Load(), int32(defaultFanOut))
}

func TestVariantImages_VariationFailure(t *testing.T) {
	stub := newStub()
	stub.failOn = 103
	svc := New(stub, zerolog.Nop())

	_, err := svc.VariantImages(context.Background(), "42")
	require.ErrorIs(t, err, domain.ErrUpstream)
}

func TestVariantImages_BadInput(t *testing.T) {
	svc := New(newStub(), zerolog.Nop())

	_, err := svc.VariantImages(context.Background(), "shirt")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.VariantImages(context.Background(), "7")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
