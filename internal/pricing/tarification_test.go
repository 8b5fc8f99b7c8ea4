package pricing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pricing-service/internal/model"
)

// fakeProducts is an in-memory ProductGetter.
type fakeProducts struct {
	products map[uint]*model.Product
}

func (f *fakeProducts) Get(_ context.Context, id uint) (*model.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *product
	return &clone, nil
}

// fakeTarificationResults is an in-memory TarificationResultStore that
// returns newest results first, like the real store.
type fakeTarificationResults struct {
	saved  []model.TarificationResult
	nextID uint
}

func (f *fakeTarificationResults) Save(_ context.Context, result *model.TarificationResult) error {
	f.nextID++
	result.ID = f.nextID
	result.CalculatedAt = time.Now()
	f.saved = append(f.saved, *result)
	return nil
}

func (f *fakeTarificationResults) ListByOwner(_ context.Context, ownerID uint) ([]model.TarificationResult, error) {
	var results []model.TarificationResult
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].UserID == ownerID {
			results = append(results, f.saved[i])
		}
	}
	return results, nil
}

func (f *fakeTarificationResults) ListByProduct(_ context.Context, productID uint) ([]model.TarificationResult, error) {
	var results []model.TarificationResult
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].ProductID == productID {
			results = append(results, f.saved[i])
		}
	}
	return results, nil
}

func TestTarificationProductHistoryFiltersOwner(t *testing.T) {
	mine := testProduct(7)
	theirs := testProduct(9)
	theirs.ID = 2
	engine, results := newTestEngine(map[uint]*model.Product{1: mine, 2: theirs})

	ctx := context.Background()
	_, err := engine.ComputePriceMatching(ctx, 1, 7)
	require.NoError(t, err)
	_, err = engine.ComputePriceMatching(ctx, 2, 9)
	require.NoError(t, err)
	require.Len(t, results.saved, 2)

	history, err := engine.ProductHistory(ctx, 1, 7)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, uint(1), history[0].ProductID)

	history, err = engine.ProductHistory(ctx, 2, 7)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func newTestEngine(products map[uint]*model.Product) (*TarificationEngine, *fakeTarificationResults) {
	results := &fakeTarificationResults{}
	engine := NewTarificationEngine(&fakeProducts{products: products}, results, zap.NewNop())
	return engine, results
}

func testProduct(owner uint) *model.Product {
	return &model.Product{
		ID:              1,
		Name:            "Widget",
		Category:        "electronics",
		CompetitorPrice: 100,
		ProductionCost:  40,
		DesiredMargin:   0.25,
		Stock:           10,
		UserID:          owner,
	}
}

func float64Ptr(v float64) *float64 { return &v }

func TestSkimmingPriceClampsToCostFloor(t *testing.T) {
	// maxPrice 50 is below the 20% margin floor of cost 100
	price := skimmingPrice(50, 100, 0)
	assert.Equal(t, 120.0, price)
}

func TestSkimmingPriceDecaysOverTime(t *testing.T) {
	price := skimmingPrice(150, 40, 10)
	assert.InDelta(t, 150*math.Exp(-0.3), price, 1e-9)
}

func TestPenetrationPriceAtLaunchIsMinPrice(t *testing.T) {
	// ln(1) = 0, so the launch price is exactly the floor
	price := penetrationPrice(50, 10, 0)
	assert.Equal(t, 50.0, price)
}

func TestPenetrationPriceGrowsWithTime(t *testing.T) {
	price := penetrationPrice(50, 10, 5)
	assert.InDelta(t, 50+0.055*10*math.Log(6), price, 1e-9)
}

func TestMatchingPricePremium(t *testing.T) {
	// delta = 0.015 * 100 * e^0 = 1.5
	price := matchingPrice(100, 10, 0)
	assert.InDelta(t, 101.5, price, 1e-9)
}

func TestMatchingPriceClampsToCostFloor(t *testing.T) {
	price := matchingPrice(10, 100, 0)
	assert.Equal(t, 110.0, price)
}

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{
		"skimming":    Skimming,
		"SKIMMING":    Skimming,
		"Ecremage":    Skimming,
		"penetration": Penetration,
		"matching":    PriceMatching,
		"Alignement":  PriceMatching,
		"":            PriceMatching,
		"nonsense":    PriceMatching,
	}
	for name, want := range cases {
		assert.Equal(t, want, ParseStrategy(name), "name %q", name)
	}
}

func TestElapsedMonths(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, elapsedMonths(nil, now))

	launch := now.AddDate(0, 0, -60)
	assert.InDelta(t, 2.0, elapsedMonths(&launch, now), 1e-9)
}

func TestComputeSkimmingPersistsResult(t *testing.T) {
	product := testProduct(7)
	engine, results := newTestEngine(map[uint]*model.Product{1: product})

	result, err := engine.ComputeSkimming(context.Background(), 1, 7, float64Ptr(50))
	require.NoError(t, err)

	// floor: 40 * 1.2 = 48, below maxPrice 50 at t=0, so price is 50
	assert.Equal(t, 50.0, result.TarificationPrice)
	assert.Equal(t, 500.0, result.PotentialRevenue)
	assert.InDelta(t, (50.0-40.0)/50.0*100, result.Margin, 1e-9)
	assert.Equal(t, uint(7), result.UserID)
	assert.Equal(t, "Widget", result.ProductName)
	assert.Equal(t, 0.0, result.TimeInMonths)
	require.Len(t, results.saved, 1)
}

func TestComputeUsesLaunchDate(t *testing.T) {
	product := testProduct(7)
	launch := time.Now().AddDate(0, 0, -90)
	product.LaunchDate = &launch
	engine, _ := newTestEngine(map[uint]*model.Product{1: product})

	result, err := engine.ComputePriceMatching(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, result.TimeInMonths, 0.01)
}

func TestComputeOwnershipMismatchIsNotFound(t *testing.T) {
	engine, _ := newTestEngine(map[uint]*model.Product{1: testProduct(7)})

	_, err := engine.ComputePriceMatching(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComputeRejectsInvalidProduct(t *testing.T) {
	product := testProduct(7)
	product.CompetitorPrice = 0
	engine, _ := newTestEngine(map[uint]*model.Product{1: product})

	_, err := engine.ComputeSkimming(context.Background(), 1, 7, nil)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "competitor_price", validationErr.Field)
}

func TestComputeFutureDefaultsToMatching(t *testing.T) {
	product := testProduct(7)
	engine, _ := newTestEngine(map[uint]*model.Product{1: product})

	result, err := engine.ComputeFuture(context.Background(), 1, 7, "no-such-strategy", 6, nil)
	require.NoError(t, err)

	assert.Equal(t, 6.0, result.TimeInMonths)
	assert.InDelta(t, matchingPrice(100, 40, 6), result.TarificationPrice, 1e-9)
}

func TestComputeFutureSkimmingWithReference(t *testing.T) {
	product := testProduct(7)
	engine, _ := newTestEngine(map[uint]*model.Product{1: product})

	result, err := engine.ComputeFuture(context.Background(), 1, 7, "skimming", 12, float64Ptr(200))
	require.NoError(t, err)
	assert.InDelta(t, skimmingPrice(200, 40, 12), result.TarificationPrice, 1e-9)
}

func TestHistoryIsIdempotentAndNewestFirst(t *testing.T) {
	product := testProduct(7)
	engine, _ := newTestEngine(map[uint]*model.Product{1: product})

	ctx := context.Background()
	_, err := engine.ComputePriceMatching(ctx, 1, 7)
	require.NoError(t, err)
	_, err = engine.ComputePenetration(ctx, 1, 7, nil)
	require.NoError(t, err)

	first, err := engine.History(ctx, 7)
	require.NoError(t, err)
	second, err := engine.History(ctx, 7)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.True(t, first[0].ID > first[1].ID, "newest result first")

	// other owners see nothing
	other, err := engine.History(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, other)
}
