package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terrainforge/backend/internal/catalog"
	"github.com/terrainforge/backend/internal/geometry"
	"github.com/terrainforge/backend/pkg/config"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

func defaultPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		MaterialCostPerGram:    0.04,
		MachineCostPerHour:     1.25,
		LaborCostPerPrint:      2.50,
		PrintSpeedGramsPerHour: 28,
		OverheadMultiplier:     1.15,
		CommissionRate:         0.30,
		RepeatMarginRate:       0.25,
		WallThicknessCm:        0.2,
		InfillFraction:         0.08,
		WasteFactor:            1.05,
		DensityGramsPerCm3:     1.24,
		MinWeightGrams:         10,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(defaultPricingConfig())
	if err != nil {
		t.Fatalf("NewEngine error = %v", err)
	}
	return engine
}

func pricedAsset(price string) catalog.Asset {
	base := decimal.RequireFromString(price)
	return catalog.Asset{
		ID:        uuid.New(),
		Name:      "Ruined Tower",
		AABB:      geometry.AABB{X: 0.2, Y: 0.35, Z: 0.2},
		Footprint: geometry.Footprint{Cols: 1, Rows: 1},
		BasePrice: &base,
	}
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	mutations := map[string]func(*config.PricingConfig){
		"zero material cost":  func(c *config.PricingConfig) { c.MaterialCostPerGram = 0 },
		"zero print speed":    func(c *config.PricingConfig) { c.PrintSpeedGramsPerHour = 0 },
		"overhead below one":  func(c *config.PricingConfig) { c.OverheadMultiplier = 0.9 },
		"commission of one":   func(c *config.PricingConfig) { c.CommissionRate = 1 },
		"negative margin":     func(c *config.PricingConfig) { c.RepeatMarginRate = -0.1 },
		"zero wall thickness": func(c *config.PricingConfig) { c.WallThicknessCm = 0 },
		"infill above one":    func(c *config.PricingConfig) { c.InfillFraction = 1.5 },
		"waste below one":     func(c *config.PricingConfig) { c.WasteFactor = 0.5 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := defaultPricingConfig()
			mutate(&cfg)
			if _, err := NewEngine(cfg); pkgerrors.As(err) == nil {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestEstimateWeightFloor(t *testing.T) {
	engine := newTestEngine(t)

	// A 1 cm cube yields under 2 g of material; the floor takes over.
	tiny := geometry.AABB{X: 0.01, Y: 0.01, Z: 0.01}
	if got := engine.EstimateWeight(tiny); got != 10 {
		t.Fatalf("expected floor weight 10 g, got %v", got)
	}

	// A larger piece clears the floor and scales with size.
	small := engine.EstimateWeight(geometry.AABB{X: 0.1, Y: 0.1, Z: 0.1})
	large := engine.EstimateWeight(geometry.AABB{X: 0.3, Y: 0.3, Z: 0.3})
	if small <= 10 {
		t.Fatalf("expected 10 cm cube above the floor, got %v", small)
	}
	if large <= small {
		t.Fatalf("expected weight to grow with size: %v vs %v", small, large)
	}
}

func TestCalculatePricingRoundTrip(t *testing.T) {
	engine := newTestEngine(t)
	asset := pricedAsset("349.00")

	priced, err := engine.CalculatePricing(asset)
	if err != nil {
		t.Fatalf("CalculatePricing error = %v", err)
	}

	first := priced.FirstPurchase
	if first.ArtistCost.Sign() <= 0 {
		t.Fatalf("expected positive artist cost, got %s", first.ArtistCost)
	}

	// Reassembling the split recovers the stored price.
	tolerance := decimal.New(1, -8)
	if diff := first.Total.Sub(*asset.BasePrice).Abs(); diff.GreaterThan(tolerance) {
		t.Fatalf("round trip drifted by %s: total=%s base=%s", diff, first.Total, asset.BasePrice)
	}
	sum := first.ArtistCost.Add(first.Commission).Add(first.PrintCost)
	if !sum.Equal(first.Total) {
		t.Fatalf("tier components %s do not sum to total %s", sum, first.Total)
	}

	// Commission is the configured fraction of artist cost.
	rate := first.Commission.Div(first.ArtistCost)
	if diff := rate.Sub(decimal.RequireFromString("0.30")).Abs(); diff.GreaterThan(tolerance) {
		t.Fatalf("commission rate drifted: %s", rate)
	}
}

func TestCalculatePricingRepeatTier(t *testing.T) {
	engine := newTestEngine(t)

	priced, err := engine.CalculatePricing(pricedAsset("349.00"))
	if err != nil {
		t.Fatalf("CalculatePricing error = %v", err)
	}

	repeat := priced.RepeatPurchase
	if !repeat.ArtistCost.IsZero() {
		t.Fatalf("repeat tier must carry no artist cost, got %s", repeat.ArtistCost)
	}
	if !repeat.PrintCost.Equal(priced.FirstPurchase.PrintCost) {
		t.Fatal("print cost must match across tiers")
	}
	if !repeat.Total.LessThan(priced.FirstPurchase.Total) {
		t.Fatalf("repeat total %s not below first total %s", repeat.Total, priced.FirstPurchase.Total)
	}

	// repeatCommission = (artist + commission) * marginRate
	want := priced.FirstPurchase.ArtistCost.
		Add(priced.FirstPurchase.Commission).
		Mul(decimal.RequireFromString("0.25"))
	if !repeat.Commission.Equal(want) {
		t.Fatalf("repeat commission = %s, want %s", repeat.Commission, want)
	}
}

func TestCalculatePricingUnpriceable(t *testing.T) {
	engine := newTestEngine(t)

	asset := pricedAsset("349.00")
	asset.BasePrice = nil
	_, err := engine.CalculatePricing(asset)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalculatePricingPriceBelowPrintCost(t *testing.T) {
	engine := newTestEngine(t)

	// Print cost for this piece is well above a dollar.
	_, err := engine.CalculatePricing(pricedAsset("1.00"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
