package pricing

import (
	"context"
	"strings"

	"pricing-service/internal/model"

	"go.uber.org/zap"
)

// ProductGetter loads products from the catalog. Get performs no
// ownership filtering; callers compare the owner themselves.
type ProductGetter interface {
	Get(ctx context.Context, id uint) (*model.Product, error)
}

// OptimalResultStore persists and lists optimal price results.
type OptimalResultStore interface {
	Save(ctx context.Context, result *model.OptimalPriceResult) error
	ListByOwner(ctx context.Context, ownerID uint) ([]model.OptimalPriceResult, error)
	ListByProduct(ctx context.Context, productID uint) ([]model.OptimalPriceResult, error)
}

// Quoter produces a price quote for normalized prediction inputs.
type Quoter interface {
	Quote(ctx context.Context, in PredictionInput) PriceQuote
}

// OptimalService computes the single "best" price for a product by
// consulting the ML predictor, with a deterministic fallback.
type OptimalService struct {
	products   ProductGetter
	results    OptimalResultStore
	quoter     Quoter
	normalizer *Normalizer
	logger     *zap.Logger
}

// NewOptimalService wires an optimal pricing service.
func NewOptimalService(products ProductGetter, results OptimalResultStore, quoter Quoter, normalizer *Normalizer, logger *zap.Logger) *OptimalService {
	return &OptimalService{
		products:   products,
		results:    results,
		quoter:     quoter,
		normalizer: normalizer,
		logger:     logger,
	}
}

// loadOwned fetches a product and checks it belongs to ownerID. A
// mismatch is reported as ErrNotFound, identical to a missing row.
func loadOwned(ctx context.Context, products ProductGetter, productID, ownerID uint) (*model.Product, error) {
	product, err := products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.UserID != ownerID {
		return nil, ErrNotFound
	}
	return product, nil
}

// validateProduct checks the attributes every pricing pipeline depends on.
func validateProduct(p *model.Product) error {
	if strings.TrimSpace(p.Category) == "" {
		return &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	if p.CompetitorPrice <= 0 {
		return &ValidationError{Field: "competitor_price", Reason: "must be positive"}
	}
	if p.ProductionCost <= 0 {
		return &ValidationError{Field: "production_cost", Reason: "must be positive"}
	}
	if p.DesiredMargin < 0 {
		return &ValidationError{Field: "desired_margin", Reason: "must be zero or positive"}
	}
	return nil
}

// marginFraction normalizes a desired margin to a 0-1 fraction. Values
// above 1 are interpreted as percentages and divided down until they
// land in range, so 150 and 1.5 mean the same margin.
func marginFraction(margin float64) float64 {
	for margin > 1 {
		margin /= 100
	}
	return margin
}

// deriveMetrics computes the potential revenue and realized margin
// percentage for a computed price.
func deriveMetrics(price float64, p *model.Product) (revenue, margin float64) {
	revenue = price * float64(p.Stock)
	margin = (price - p.ProductionCost) / price * 100
	return revenue, margin
}

// ComputeOptimal computes and persists the optimal price for the given
// product on behalf of ownerID.
func (s *OptimalService) ComputeOptimal(ctx context.Context, productID, ownerID uint) (*model.OptimalPriceResult, error) {
	product, err := loadOwned(ctx, s.products, productID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := validateProduct(product); err != nil {
		return nil, err
	}

	fraction := marginFraction(product.DesiredMargin)

	domain, err := s.normalizer.Normalize(ctx, product.Category)
	if err != nil {
		return nil, err
	}

	quote := s.quoter.Quote(ctx, PredictionInput{
		Domain:          domain,
		CompetitorPrice: product.CompetitorPrice,
		ProductionCost:  product.ProductionCost,
		DesiredMargin:   fraction,
	})
	if quote.Source == QuoteFallback {
		s.logger.Warn("Optimal price computed from fallback",
			zap.Uint("product_id", product.ID),
			zap.Error(quote.Reason))
	}

	revenue, margin := deriveMetrics(quote.Price, product)

	result := &model.OptimalPriceResult{
		ProductID:        product.ID,
		ProductName:      product.Name,
		CompetitorPrice:  product.CompetitorPrice,
		OptimalPrice:     quote.Price,
		PotentialRevenue: revenue,
		Margin:           margin,
		UserID:           ownerID,
	}

	if err := s.results.Save(ctx, result); err != nil {
		return nil, err
	}

	s.logger.Info("Optimal price computed",
		zap.Uint("product_id", product.ID),
		zap.Float64("optimal_price", quote.Price),
		zap.Bool("fallback", quote.Source == QuoteFallback))
	return result, nil
}

// History returns the caller's optimal price results ordered by
// computation time descending.
func (s *OptimalService) History(ctx context.Context, ownerID uint) ([]model.OptimalPriceResult, error) {
	return s.results.ListByOwner(ctx, ownerID)
}

// ProductHistory returns the caller's results for one product. Results
// survive product deletion, so no catalog lookup is involved; rows of
// other owners are filtered out.
func (s *OptimalService) ProductHistory(ctx context.Context, productID, ownerID uint) ([]model.OptimalPriceResult, error) {
	results, err := s.results.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	owned := make([]model.OptimalPriceResult, 0, len(results))
	for _, result := range results {
		if result.UserID == ownerID {
			owned = append(owned, result)
		}
	}
	return owned, nil
}
