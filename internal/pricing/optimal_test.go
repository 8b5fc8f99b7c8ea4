package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pricing-service/internal/model"
)

// fakeOptimalResults is an in-memory OptimalResultStore that returns
// newest results first, like the real store.
type fakeOptimalResults struct {
	saved  []model.OptimalPriceResult
	nextID uint
}

func (f *fakeOptimalResults) Save(_ context.Context, result *model.OptimalPriceResult) error {
	f.nextID++
	result.ID = f.nextID
	result.CalculatedAt = time.Now()
	f.saved = append(f.saved, *result)
	return nil
}

func (f *fakeOptimalResults) ListByOwner(_ context.Context, ownerID uint) ([]model.OptimalPriceResult, error) {
	var results []model.OptimalPriceResult
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].UserID == ownerID {
			results = append(results, f.saved[i])
		}
	}
	return results, nil
}

func (f *fakeOptimalResults) ListByProduct(_ context.Context, productID uint) ([]model.OptimalPriceResult, error) {
	var results []model.OptimalPriceResult
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].ProductID == productID {
			results = append(results, f.saved[i])
		}
	}
	return results, nil
}

// fakeQuoter returns a fixed quote and records its inputs.
type fakeQuoter struct {
	quote PriceQuote
	calls []PredictionInput
}

func (f *fakeQuoter) Quote(_ context.Context, in PredictionInput) PriceQuote {
	f.calls = append(f.calls, in)
	return f.quote
}

func newOptimalService(products map[uint]*model.Product, quoter Quoter, lister DomainLister) (*OptimalService, *fakeOptimalResults) {
	results := &fakeOptimalResults{}
	service := NewOptimalService(&fakeProducts{products: products}, results, quoter, NewNormalizer(lister), zap.NewNop())
	return service, results
}

func electronicsLister() *fakeLister {
	return &fakeLister{domains: []string{"Electronics", "Mode"}}
}

func TestComputeOptimalPredicted(t *testing.T) {
	product := testProduct(7)
	quoter := &fakeQuoter{quote: PriceQuote{Price: 42.5, Source: QuotePredicted}}
	service, results := newOptimalService(map[uint]*model.Product{1: product}, quoter, electronicsLister())

	result, err := service.ComputeOptimal(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.Equal(t, 42.5, result.OptimalPrice)
	assert.Equal(t, 42.5*10, result.PotentialRevenue)
	assert.InDelta(t, (42.5-40)/42.5*100, result.Margin, 1e-9)
	assert.Equal(t, uint(7), result.UserID)
	assert.Equal(t, uint(1), result.ProductID)
	assert.Equal(t, "Widget", result.ProductName)
	assert.Equal(t, 100.0, result.CompetitorPrice)
	require.Len(t, results.saved, 1)

	// inputs were normalized before reaching the predictor
	require.Len(t, quoter.calls, 1)
	assert.Equal(t, "Electronics", quoter.calls[0].Domain)
	assert.Equal(t, 0.25, quoter.calls[0].DesiredMargin)
}

func TestComputeOptimalFallbackPriceIsExact(t *testing.T) {
	product := testProduct(7)
	product.DesiredMargin = 0.5

	// predictor is unreachable: every call fails and falls back
	server := failingPredictor(t)
	service, _ := newOptimalService(map[uint]*model.Product{1: product}, server, electronicsLister())

	result, err := service.ComputeOptimal(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 40*(1+0.5), result.OptimalPrice)
}

func TestComputeOptimalNormalizesPercentMargin(t *testing.T) {
	// a margin of 150 must be treated exactly like 1.5
	percent := testProduct(7)
	percent.DesiredMargin = 150
	fraction := testProduct(7)
	fraction.ID = 2
	fraction.DesiredMargin = 1.5

	server := failingPredictor(t)
	service, _ := newOptimalService(map[uint]*model.Product{1: percent, 2: fraction}, server, electronicsLister())

	fromPercent, err := service.ComputeOptimal(context.Background(), 1, 7)
	require.NoError(t, err)
	fromFraction, err := service.ComputeOptimal(context.Background(), 2, 7)
	require.NoError(t, err)

	assert.Equal(t, fromFraction.OptimalPrice, fromPercent.OptimalPrice)
	assert.InDelta(t, 40*(1+0.015), fromPercent.OptimalPrice, 1e-9)
}

func TestComputeOptimalZeroStockZeroRevenue(t *testing.T) {
	product := testProduct(7)
	product.Stock = 0
	quoter := &fakeQuoter{quote: PriceQuote{Price: 60, Source: QuotePredicted}}
	service, _ := newOptimalService(map[uint]*model.Product{1: product}, quoter, electronicsLister())

	result, err := service.ComputeOptimal(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.PotentialRevenue)
}

func TestComputeOptimalValidation(t *testing.T) {
	cases := map[string]func(*model.Product){
		"category":         func(p *model.Product) { p.Category = "  " },
		"competitor_price": func(p *model.Product) { p.CompetitorPrice = 0 },
		"production_cost":  func(p *model.Product) { p.ProductionCost = -1 },
		"desired_margin":   func(p *model.Product) { p.DesiredMargin = -0.1 },
	}

	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			product := testProduct(7)
			mutate(product)
			quoter := &fakeQuoter{quote: PriceQuote{Price: 60, Source: QuotePredicted}}
			service, results := newOptimalService(map[uint]*model.Product{1: product}, quoter, electronicsLister())

			_, err := service.ComputeOptimal(context.Background(), 1, 7)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, field, validationErr.Field)
			assert.Empty(t, quoter.calls, "predictor must not be called")
			assert.Empty(t, results.saved, "nothing persisted")
		})
	}
}

func TestComputeOptimalUnrecognizedCategory(t *testing.T) {
	product := testProduct(7)
	product.Category = "furniture"
	quoter := &fakeQuoter{quote: PriceQuote{Price: 60, Source: QuotePredicted}}
	service, results := newOptimalService(map[uint]*model.Product{1: product}, quoter, electronicsLister())

	_, err := service.ComputeOptimal(context.Background(), 1, 7)
	var domainErr *DomainNotRecognizedError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "furniture", domainErr.Attempted)
	assert.Empty(t, quoter.calls, "predictor must never be reached")
	assert.Empty(t, results.saved)
}

func TestComputeOptimalOwnershipMismatchIsNotFound(t *testing.T) {
	quoter := &fakeQuoter{quote: PriceQuote{Price: 60, Source: QuotePredicted}}
	service, _ := newOptimalService(map[uint]*model.Product{1: testProduct(7)}, quoter, electronicsLister())

	_, err := service.ComputeOptimal(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = service.ComputeOptimal(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOptimalHistoryIsIdempotent(t *testing.T) {
	product := testProduct(7)
	quoter := &fakeQuoter{quote: PriceQuote{Price: 60, Source: QuotePredicted}}
	service, _ := newOptimalService(map[uint]*model.Product{1: product}, quoter, electronicsLister())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := service.ComputeOptimal(ctx, 1, 7)
		require.NoError(t, err)
	}

	first, err := service.History(ctx, 7)
	require.NoError(t, err)
	second, err := service.History(ctx, 7)
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.True(t, first[0].ID > first[1].ID)
}

func TestOptimalProductHistoryFiltersOwner(t *testing.T) {
	mine := testProduct(7)
	theirs := testProduct(9)
	theirs.ID = 2
	quoter := &fakeQuoter{quote: PriceQuote{Price: 60, Source: QuotePredicted}}
	service, results := newOptimalService(map[uint]*model.Product{1: mine, 2: theirs}, quoter, electronicsLister())

	ctx := context.Background()
	_, err := service.ComputeOptimal(ctx, 1, 7)
	require.NoError(t, err)
	_, err = service.ComputeOptimal(ctx, 2, 9)
	require.NoError(t, err)
	require.Len(t, results.saved, 2)

	history, err := service.ProductHistory(ctx, 1, 7)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, uint(1), history[0].ProductID)

	// another owner's results never leak through a shared product id
	history, err = service.ProductHistory(ctx, 2, 7)
	require.NoError(t, err)
	assert.Empty(t, history)
}

// failingPredictor returns a predictor client pointed at a dead server,
// so every quote takes the fallback path.
func failingPredictor(t *testing.T) *Predictor {
	t.Helper()
	return NewPredictor("http://127.0.0.1:1", 500*time.Millisecond, zap.NewNop())
}
