package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"headless-storefront/internal/commerce"
	"headless-storefront/internal/domain"
)

const defaultFanOut = 4

type productSource interface {
	GetProduct(ctx context.Context, id int64) (*commerce.Product, error)
	GetVariation(ctx context.Context, productID, variationID int64) (*commerce.Variation, error)
}

type Service struct {
	products productSource
	fanOut   int
	logger   zerolog.Logger
}

func New(products productSource, logger zerolog.Logger) *Service {
	return &Service{products: products, fanOut: defaultFanOut, logger: logger}
}

type VariantImage struct {
	VariationID int64             `json:"variationId"`
	Attributes  map[string]string `json:"attributes"`
	Image       string            `json:"image"`
}

type VariantImages struct {
	ProductID     int64          `json:"productId"`
	Name          string         `json:"name"`
	ProductImages []string       `json:"productImages"`
	Variations    []VariantImage `json:"variations"`
}

// VariantImages loads a product and all of its variations, at most fanOut
// requests in flight. Results keep the product's variation order.
func (s *Service) VariantImages(ctx context.Context, rawID string) (*VariantImages, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: product id %q", domain.ErrInvalidInput, rawID)
	}
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &VariantImages{
		ProductID:     product.ID,
		Name:          product.Name,
		ProductImages: make([]string, 0, len(product.Images)),
		Variations:    make([]VariantImage, len(product.Variations)),
	}
	for _, img := range product.Images {
		out.ProductImages = append(out.ProductImages, img.Src)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i, variationID := range product.Variations {
		g.Go(func() error {
			v, err := s.products.GetVariation(gctx, id, variationID)
			if err != nil {
				return fmt.Errorf("variation %d: %w", variationID, err)
			}
			vi := VariantImage{VariationID: v.ID, Attributes: make(map[string]string, len(v.Attributes))}
			for _, attr := range v.Attributes {
				vi.Attributes[attr.Name] = attr.Option
			}
			if v.Image != nil {
				vi.Image = v.Image.Src
			}
			out.Variations[i] = vi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Int64("product_id", id).Msg("catalog service: variant fan-out failed")
		return nil, err
	}
	return out, nil
}
