// Package purchase resolves catalog data, checks entitlements under either
// proof mechanism, and retrieves purchased assets from the platform.
package purchase

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rookpress/bookstall/internal/model"
	"github.com/rookpress/bookstall/internal/platform"
)

// ErrNotEntitled means the proof did not verify for the requested product.
var ErrNotEntitled = errors.New("product not purchased")

// PlatformAPI is the slice of the platform client this service consumes.
type PlatformAPI interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	VerifyPurchase(ctx context.Context, productID string, proof platform.Proof) (*platform.Verification, error)
	Download(ctx context.Context, productID string, proof platform.Proof) ([]byte, string, error)
}

// Config bounds the per-product verification fan-out in ListMyPurchases.
type Config struct {
	// Concurrency caps in-flight verification calls. Defaults to 4.
	Concurrency int
	// RatePerSec throttles verification calls against the platform.
	// Zero means unthrottled.
	RatePerSec float64
}

type Service struct {
	api     PlatformAPI
	conc    int
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewService(api PlatformAPI, cfg Config, logger *slog.Logger) *Service {
	conc := cfg.Concurrency
	if conc <= 0 {
		conc = 4
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	return &Service{
		api:     api,
		conc:    conc,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Products fetches the catalog from the platform.
func (s *Service) Products(ctx context.Context) ([]model.Product, error) {
	return s.api.ListProducts(ctx)
}

// VerifyEntitlement checks a single product under the given proof.
func (s *Service) VerifyEntitlement(ctx context.Context, productID string, proof platform.Proof) (*platform.Verification, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.api.VerifyPurchase(ctx, productID, proof)
}

// ListMyPurchases verifies every catalog entry under the bearer token and
// collects the entitled ones, in catalog order. A failed verification for one
// product is treated as "not purchased" for that product; it never aborts the
// listing.
func (s *Service) ListMyPurchases(ctx context.Context, token string) ([]model.Entitlement, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	proof := platform.BearerProof(token)
	results := make([]*model.Entitlement, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.conc)
	for i, p := range products {
		g.Go(func() error {
			v, err := s.VerifyEntitlement(gctx, p.ID, proof)
			if err != nil {
				s.logger.Debug("verification failed, treating as not purchased",
					"product_id", p.ID, "error", err)
				return nil
			}
			if !v.HasPurchased {
				return nil
			}
			currency := v.Currency
			if currency == "" {
				currency = "usd"
			}
			results[i] = &model.Entitlement{
				ProductID:    p.ID,
				ProductName:  p.Name,
				PurchaseDate: v.PurchaseDate,
				Amount:       v.Amount,
				Currency:     currency,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	purchases := make([]model.Entitlement, 0, len(products))
	for _, e := range results {
		if e != nil {
			purchases = append(purchases, *e)
		}
	}
	return purchases, nil
}

// FetchAsset verifies entitlement and, only then, retrieves the asset bytes
// plus a suggested file name. An unverified proof fails with ErrNotEntitled
// before any retrieval call is made.
func (s *Service) FetchAsset(ctx context.Context, productID string, proof platform.Proof) ([]byte, string, error) {
	v, err := s.VerifyEntitlement(ctx, productID, proof)
	if err != nil {
		return nil, "", err
	}
	if !v.HasPurchased {
		return nil, "", ErrNotEntitled
	}
	return s.api.Download(ctx, productID, proof)
}
