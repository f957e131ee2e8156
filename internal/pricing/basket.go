package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terrainforge/backend/internal/basket"
	"github.com/terrainforge/backend/internal/catalog"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

// LineQuote is one basket line priced at both tiers.
type LineQuote struct {
	AssetID   uuid.UUID `json:"asset_id"`
	AssetName string    `json:"asset_name"`
	Quantity  int       `json:"quantity"`
	FirstQty  int       `json:"first_qty"`
	RepeatQty int       `json:"repeat_qty"`

	FirstUnit  decimal.Decimal `json:"first_unit_price"`
	RepeatUnit decimal.Decimal `json:"repeat_unit_price"`
	// UnitPrice is the quantity-weighted average across both tiers.
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// BasketQuote is the priced basket with its cost split.
type BasketQuote struct {
	Lines []LineQuote `json:"lines"`

	ArtistTotal   decimal.Decimal `json:"artist_total"`
	PlatformTotal decimal.Decimal `json:"platform_total"`
	PrintTotal    decimal.Decimal `json:"print_total"`
	Subtotal      decimal.Decimal `json:"subtotal"`

	// SkippedAssetIDs are basket lines whose asset no longer exists in the
	// catalog. They contribute nothing to the totals; callers log them.
	SkippedAssetIDs []uuid.UUID `json:"skipped_asset_ids,omitempty"`
}

// CalculateBasketTotal prices every basket line against the catalog
// snapshot. Lines referencing unknown assets are skipped and reported;
// a known asset that cannot be priced fails the whole quote.
func (e *Engine) CalculateBasketTotal(items []basket.Item, cat *catalog.Catalog) (BasketQuote, error) {
	quote := BasketQuote{
		Lines:         make([]LineQuote, 0, len(items)),
		ArtistTotal:   decimal.Zero,
		PlatformTotal: decimal.Zero,
		PrintTotal:    decimal.Zero,
		Subtotal:      decimal.Zero,
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return BasketQuote{}, err
		}
		if item.Quantity == 0 {
			continue
		}

		asset, ok := cat.AssetByID(item.AssetID)
		if !ok {
			quote.SkippedAssetIDs = append(quote.SkippedAssetIDs, item.AssetID)
			continue
		}

		priced, err := e.CalculatePricing(asset)
		if err != nil {
			return BasketQuote{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "basket contains an unpriceable asset").
				WithDetails(map[string]any{"asset_id": asset.ID})
		}

		firstQty := decimal.NewFromInt(int64(item.FirstQty))
		repeatQty := decimal.NewFromInt(int64(item.RepeatQty))
		qty := decimal.NewFromInt(int64(item.Quantity))

		lineTotal := priced.FirstPurchase.Total.Mul(firstQty).
			Add(priced.RepeatPurchase.Total.Mul(repeatQty))

		quote.Lines = append(quote.Lines, LineQuote{
			AssetID:    asset.ID,
			AssetName:  asset.Name,
			Quantity:   item.Quantity,
			FirstQty:   item.FirstQty,
			RepeatQty:  item.RepeatQty,
			FirstUnit:  priced.FirstPurchase.Total,
			RepeatUnit: priced.RepeatPurchase.Total,
			UnitPrice:  lineTotal.Div(qty),
			LineTotal:  lineTotal,
		})

		quote.ArtistTotal = quote.ArtistTotal.Add(priced.FirstPurchase.ArtistCost.Mul(firstQty))
		quote.PlatformTotal = quote.PlatformTotal.
			Add(priced.FirstPurchase.Commission.Mul(firstQty)).
			Add(priced.RepeatPurchase.Commission.Mul(repeatQty))
		quote.PrintTotal = quote.PrintTotal.Add(priced.FirstPurchase.PrintCost.Mul(qty))
		quote.Subtotal = quote.Subtotal.Add(lineTotal)
	}

	return quote, nil
}
