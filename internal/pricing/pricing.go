package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terrainforge/backend/internal/catalog"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

var one = decimal.NewFromInt(1)

// Tier is one purchase tier's full breakdown. Total always equals
// ArtistCost + Commission + PrintCost.
type Tier struct {
	ArtistCost decimal.Decimal `json:"artist_cost"`
	Commission decimal.Decimal `json:"commission"`
	PrintCost  decimal.Decimal `json:"print_cost"`
	Total      decimal.Decimal `json:"total"`
}

// AssetPricing is the two-tier pricing for one asset.
type AssetPricing struct {
	AssetID     uuid.UUID `json:"asset_id"`
	WeightGrams float64   `json:"weight_grams"`
	VolumeCm3   float64   `json:"volume_cm3"`

	FirstPurchase  Tier `json:"first_purchase"`
	RepeatPurchase Tier `json:"repeat_purchase"`
}

// CalculatePricing back-solves the artist's cut from the stored total
// first-purchase price, then derives the repeat tier from the configured
// margin fraction. The stored price is the total a first buyer pays; it is
// assumed to already embed print cost and commission at the known rate.
func (e *Engine) CalculatePricing(asset catalog.Asset) (AssetPricing, error) {
	if !asset.Priceable() {
		return AssetPricing{}, pkgerrors.New(pkgerrors.CodeValidation, "asset has no base price").
			WithDetails(map[string]any{"asset_id": asset.ID})
	}

	printCost := e.PrintCost(asset.AABB)
	basePrice := *asset.BasePrice

	// artistCost = (P - printCost) / (1 + commissionRate)
	artistCost := basePrice.Sub(printCost).Div(one.Add(e.commissionRate))
	if artistCost.Sign() < 0 {
		return AssetPricing{}, pkgerrors.New(pkgerrors.CodeValidation, "base price does not cover print cost").
			WithDetails(map[string]any{
				"asset_id":   asset.ID,
				"base_price": basePrice.String(),
				"print_cost": printCost.String(),
			})
	}
	commission := artistCost.Mul(e.commissionRate)

	first := Tier{
		ArtistCost: artistCost,
		Commission: commission,
		PrintCost:  printCost,
		Total:      artistCost.Add(commission).Add(printCost),
	}

	// Repeats never re-pay the artist cut at full rate, only a margin
	// fraction of artist cost plus commission.
	repeatCommission := artistCost.Add(commission).Mul(e.repeatMarginRate)
	repeat := Tier{
		ArtistCost: decimal.Zero,
		Commission: repeatCommission,
		PrintCost:  printCost,
		Total:      repeatCommission.Add(printCost),
	}

	return AssetPricing{
		AssetID:        asset.ID,
		WeightGrams:    e.EstimateWeight(asset.AABB),
		VolumeCm3:      VolumeCm3(asset.AABB),
		FirstPurchase:  first,
		RepeatPurchase: repeat,
	}, nil
}
