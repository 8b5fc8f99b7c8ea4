package pricing

import (
	"context"
	"math"
	"strings"
	"time"

	"pricing-service/internal/model"

	"go.uber.org/zap"
)

// Strategy identifies a tarification pricing strategy.
type Strategy int

const (
	// PriceMatching aligns on the competitor price plus a small premium.
	PriceMatching Strategy = iota
	// Skimming starts high and decays toward the cost floor over time.
	Skimming
	// Penetration starts low and grows logarithmically over time.
	Penetration
)

// Model parameters for the time-aware tarification formulas.
const (
	skimmingDecayRate    = 0.03  // price decay per month
	penetrationGrowth    = 0.055 // growth coefficient applied to production cost
	matchingPremiumRate  = 0.015 // initial premium over the competitor price
	matchingPremiumDecay = 0.01  // premium decay per month
)

// String returns the canonical strategy name.
func (s Strategy) String() string {
	switch s {
	case Skimming:
		return "skimming"
	case Penetration:
		return "penetration"
	default:
		return "matching"
	}
}

// ParseStrategy resolves a strategy name case-insensitively. French
// aliases from the pricing literature are accepted. An unrecognized
// name deliberately resolves to PriceMatching, the most conservative
// strategy.
func ParseStrategy(name string) Strategy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "skimming", "ecremage", "écrémage":
		return Skimming
	case "penetration", "pénétration":
		return Penetration
	case "matching", "alignement", "price-matching":
		return PriceMatching
	default:
		return PriceMatching
	}
}

// elapsedMonths converts the time since launch into months, with 30
// days counted as one month. A product without a launch date is priced
// at t=0.
func elapsedMonths(launch *time.Time, now time.Time) float64 {
	if launch == nil {
		return 0
	}
	days := now.Sub(*launch).Hours() / 24
	return days / 30
}

// skimmingPrice computes P = maxPrice * e^(-0.03t), clamped to a 20%
// margin over production cost.
func skimmingPrice(maxPrice, productionCost, t float64) float64 {
	price := maxPrice * math.Exp(-skimmingDecayRate*t)
	return math.Max(price, productionCost*1.2)
}

// penetrationPrice computes P = minPrice + 0.055*cost*ln(t+1), never
// dropping below minPrice.
func penetrationPrice(minPrice, productionCost, t float64) float64 {
	price := minPrice + penetrationGrowth*productionCost*math.Log(t+1)
	return math.Max(price, minPrice)
}

// matchingPrice computes P = competitor + delta where the premium
// delta = 0.015*competitor*e^(-0.01t) shrinks toward the competitor
// price over time, clamped to a 10% margin over production cost.
func matchingPrice(competitorPrice, productionCost, t float64) float64 {
	delta := matchingPremiumRate * competitorPrice * math.Exp(-matchingPremiumDecay*t)
	price := competitorPrice + delta
	return math.Max(price, productionCost*1.1)
}

// TarificationResultStore persists and lists tarification results.
type TarificationResultStore interface {
	Save(ctx context.Context, result *model.TarificationResult) error
	ListByOwner(ctx context.Context, ownerID uint) ([]model.TarificationResult, error)
	ListByProduct(ctx context.Context, productID uint) ([]model.TarificationResult, error)
}

// TarificationEngine computes prices under the named strategies. The
// engine is stateless between calls; each computed price is a snapshot
// of wall-clock-dependent state, persisted once and never updated.
type TarificationEngine struct {
	products ProductGetter
	results  TarificationResultStore
	logger   *zap.Logger

	// Now is the clock used for elapsed-time computations. Tests
	// override it for determinism.
	Now func() time.Time
}

// NewTarificationEngine wires a tarification engine.
func NewTarificationEngine(products ProductGetter, results TarificationResultStore, logger *zap.Logger) *TarificationEngine {
	return &TarificationEngine{
		products: products,
		results:  results,
		logger:   logger,
		Now:      time.Now,
	}
}

// priceAt evaluates the strategy formula at elapsed time t, applying
// the strategy's floor. reference overrides the default max price
// (skimming) or min price (penetration) when non-nil.
func priceAt(strategy Strategy, p *model.Product, t float64, reference *float64) float64 {
	switch strategy {
	case Skimming:
		maxPrice := p.CompetitorPrice * 1.5
		if reference != nil {
			maxPrice = *reference
		}
		return skimmingPrice(maxPrice, p.ProductionCost, t)
	case Penetration:
		minPrice := p.ProductionCost * 1.1
		if reference != nil {
			minPrice = *reference
		}
		return penetrationPrice(minPrice, p.ProductionCost, t)
	default:
		return matchingPrice(p.CompetitorPrice, p.ProductionCost, t)
	}
}

// compute runs the shared load -> validate -> price -> derive -> persist
// pipeline. The formula is evaluated at the product's elapsed months
// plus monthsAhead (zero for present-time pricing).
func (e *TarificationEngine) compute(ctx context.Context, strategy Strategy, productID, ownerID uint, monthsAhead float64, reference *float64) (*model.TarificationResult, error) {
	product, err := loadOwned(ctx, e.products, productID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := validateProduct(product); err != nil {
		return nil, err
	}

	t := elapsedMonths(product.LaunchDate, e.Now()) + monthsAhead
	price := priceAt(strategy, product, t, reference)
	revenue, margin := deriveMetrics(price, product)

	result := &model.TarificationResult{
		ProductID:         product.ID,
		ProductName:       product.Name,
		CompetitorPrice:   product.CompetitorPrice,
		TarificationPrice: price,
		PotentialRevenue:  revenue,
		Margin:            margin,
		UserID:            ownerID,
		TimeInMonths:      t,
	}

	if err := e.results.Save(ctx, result); err != nil {
		return nil, err
	}

	e.logger.Info("Tarification price computed",
		zap.Uint("product_id", product.ID),
		zap.String("strategy", strategy.String()),
		zap.Float64("price", price),
		zap.Float64("time_in_months", t))
	return result, nil
}

// ComputeSkimming prices the product under the skimming strategy.
// maxPrice overrides the default ceiling of competitor price * 1.5.
func (e *TarificationEngine) ComputeSkimming(ctx context.Context, productID, ownerID uint, maxPrice *float64) (*model.TarificationResult, error) {
	return e.compute(ctx, Skimming, productID, ownerID, 0, maxPrice)
}

// ComputePenetration prices the product under the penetration strategy.
// minPrice overrides the default floor of production cost * 1.1.
func (e *TarificationEngine) ComputePenetration(ctx context.Context, productID, ownerID uint, minPrice *float64) (*model.TarificationResult, error) {
	return e.compute(ctx, Penetration, productID, ownerID, 0, minPrice)
}

// ComputePriceMatching prices the product against the competitor price.
func (e *TarificationEngine) ComputePriceMatching(ctx context.Context, productID, ownerID uint) (*model.TarificationResult, error) {
	return e.compute(ctx, PriceMatching, productID, ownerID, 0, nil)
}

// ComputeFuture projects the price monthsAhead months from now under
// the named strategy. reference overrides the strategy's default
// reference price when non-nil.
func (e *TarificationEngine) ComputeFuture(ctx context.Context, productID, ownerID uint, strategyName string, monthsAhead int, reference *float64) (*model.TarificationResult, error) {
	return e.compute(ctx, ParseStrategy(strategyName), productID, ownerID, float64(monthsAhead), reference)
}

// History returns the caller's tarification results ordered by
// computation time descending.
func (e *TarificationEngine) History(ctx context.Context, ownerID uint) ([]model.TarificationResult, error) {
	return e.results.ListByOwner(ctx, ownerID)
}

// ProductHistory returns the caller's results for one product. Results
// outlive the product itself, so the catalog is not consulted; rows of
// other owners are filtered out.
func (e *TarificationEngine) ProductHistory(ctx context.Context, productID, ownerID uint) ([]model.TarificationResult, error) {
	results, err := e.results.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	owned := make([]model.TarificationResult, 0, len(results))
	for _, result := range results {
		if result.UserID == ownerID {
			owned = append(owned, result)
		}
	}
	return owned, nil
}
