package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terrainforge/backend/internal/basket"
	"github.com/terrainforge/backend/internal/catalog"
	"github.com/terrainforge/backend/internal/geometry"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

func basketCatalog(t *testing.T) (*catalog.Catalog, catalog.Asset, catalog.Asset) {
	t.Helper()
	tower := pricedAsset("349.00")
	wallPrice := decimal.RequireFromString("84.00")
	wall := catalog.Asset{
		ID:        uuid.New(),
		Name:      "Stone Wall Section",
		AABB:      geometry.AABB{X: 0.3, Y: 0.08, Z: 0.12},
		Footprint: geometry.Footprint{Cols: 1, Rows: 1},
		BasePrice: &wallPrice,
	}
	return catalog.NewCatalog([]catalog.Asset{tower, wall}), tower, wall
}

func TestCalculateBasketTotal(t *testing.T) {
	engine := newTestEngine(t)
	cat, tower, wall := basketCatalog(t)

	quote, err := engine.CalculateBasketTotal([]basket.Item{
		{AssetID: tower.ID, Quantity: 3, FirstQty: 1, RepeatQty: 2},
		{AssetID: wall.ID, Quantity: 2, FirstQty: 2, RepeatQty: 0},
	}, cat)
	if err != nil {
		t.Fatalf("CalculateBasketTotal error = %v", err)
	}
	if len(quote.Lines) != 2 || len(quote.SkippedAssetIDs) != 0 {
		t.Fatalf("unexpected quote shape: %+v", quote)
	}

	towerPriced, err := engine.CalculatePricing(tower)
	if err != nil {
		t.Fatalf("CalculatePricing error = %v", err)
	}

	line := quote.Lines[0]
	wantLine := towerPriced.FirstPurchase.Total.
		Add(towerPriced.RepeatPurchase.Total.Mul(decimal.NewFromInt(2)))
	if !line.LineTotal.Equal(wantLine) {
		t.Fatalf("tower line total = %s, want %s", line.LineTotal, wantLine)
	}
	if !line.UnitPrice.Equal(wantLine.Div(decimal.NewFromInt(3))) {
		t.Fatalf("unexpected weighted unit price %s", line.UnitPrice)
	}

	// The subtotal is additive across lines and across the cost split.
	wantSubtotal := quote.Lines[0].LineTotal.Add(quote.Lines[1].LineTotal)
	if !quote.Subtotal.Equal(wantSubtotal) {
		t.Fatalf("subtotal = %s, want %s", quote.Subtotal, wantSubtotal)
	}
	split := quote.ArtistTotal.Add(quote.PlatformTotal).Add(quote.PrintTotal)
	if !split.Equal(quote.Subtotal) {
		t.Fatalf("cost split %s does not sum to subtotal %s", split, quote.Subtotal)
	}

	// All-first wall line contributes full artist cost per copy.
	if quote.ArtistTotal.LessThanOrEqual(towerPriced.FirstPurchase.ArtistCost) {
		t.Fatalf("artist total %s too small", quote.ArtistTotal)
	}
}

func TestCalculateBasketTotalSkipsUnknownAssets(t *testing.T) {
	engine := newTestEngine(t)
	cat, tower, _ := basketCatalog(t)
	ghost := uuid.New()

	quote, err := engine.CalculateBasketTotal([]basket.Item{
		{AssetID: ghost, Quantity: 2, FirstQty: 1, RepeatQty: 1},
		{AssetID: tower.ID, Quantity: 1, FirstQty: 1, RepeatQty: 0},
	}, cat)
	if err != nil {
		t.Fatalf("CalculateBasketTotal error = %v", err)
	}
	if len(quote.SkippedAssetIDs) != 1 || quote.SkippedAssetIDs[0] != ghost {
		t.Fatalf("expected ghost asset reported, got %v", quote.SkippedAssetIDs)
	}
	if len(quote.Lines) != 1 {
		t.Fatalf("expected 1 priced line, got %d", len(quote.Lines))
	}
}

func TestCalculateBasketTotalUnpriceableAssetFails(t *testing.T) {
	engine := newTestEngine(t)

	unpriced := catalog.Asset{
		ID:        uuid.New(),
		Name:      "Prototype Bridge",
		AABB:      geometry.AABB{X: 0.4, Y: 0.1, Z: 0.2},
		Footprint: geometry.Footprint{Cols: 2, Rows: 1},
	}
	cat := catalog.NewCatalog([]catalog.Asset{unpriced})

	_, err := engine.CalculateBasketTotal([]basket.Item{
		{AssetID: unpriced.ID, Quantity: 1, FirstQty: 1, RepeatQty: 0},
	}, cat)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalculateBasketTotalEmptyAndZeroLines(t *testing.T) {
	engine := newTestEngine(t)
	cat, tower, _ := basketCatalog(t)

	quote, err := engine.CalculateBasketTotal([]basket.Item{
		{AssetID: tower.ID, Quantity: 0, FirstQty: 0, RepeatQty: 0},
	}, cat)
	if err != nil {
		t.Fatalf("CalculateBasketTotal error = %v", err)
	}
	if len(quote.Lines) != 0 || !quote.Subtotal.IsZero() {
		t.Fatalf("expected empty quote, got %+v", quote)
	}

	bad := []basket.Item{{AssetID: tower.ID, Quantity: 2, FirstQty: 2, RepeatQty: 1}}
	if _, err := engine.CalculateBasketTotal(bad, cat); pkgerrors.As(err) == nil {
		t.Fatalf("expected split-invariant error, got %v", err)
	}
}
