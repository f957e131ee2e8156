package basket

import (
	"sort"

	"github.com/google/uuid"

	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

// Item is one basket line. FirstQty counts copies billed at the
// first-purchase tier, RepeatQty at the repeat tier; they must always sum to
// Quantity.
type Item struct {
	AssetID   uuid.UUID `json:"asset_id"`
	Quantity  int       `json:"quantity"`
	FirstQty  int       `json:"first_qty"`
	RepeatQty int       `json:"repeat_qty"`
}

// Validate enforces the split invariant.
func (i Item) Validate() error {
	if i.Quantity < 0 || i.FirstQty < 0 || i.RepeatQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "basket quantities must be non-negative").
			WithDetails(map[string]any{"asset_id": i.AssetID})
	}
	if i.FirstQty+i.RepeatQty != i.Quantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "first_qty + repeat_qty must equal quantity").
			WithDetails(map[string]any{"asset_id": i.AssetID})
	}
	return nil
}

// LegacyItem is the deprecated representation carrying a single
// is-first-purchase flag instead of the explicit split.
type LegacyItem struct {
	AssetID         uuid.UUID
	Quantity        int
	IsFirstPurchase *bool
}

// MigrateLegacyItems translates boolean-flagged records into the explicit
// split, once, at load time: a set flag means exactly one copy is billed at
// the first tier, the remainder repeats. Records without the flag are all
// repeat purchases. The pricing code never branches on the flag again.
func MigrateLegacyItems(legacy []LegacyItem) []Item {
	items := make([]Item, 0, len(legacy))
	for _, entry := range legacy {
		qty := entry.Quantity
		if qty < 0 {
			qty = 0
		}
		first := 0
		if entry.IsFirstPurchase != nil && *entry.IsFirstPurchase && qty > 0 {
			first = 1
		}
		items = append(items, Item{
			AssetID:   entry.AssetID,
			Quantity:  qty,
			FirstQty:  first,
			RepeatQty: qty - first,
		})
	}
	return items
}

// Reconcile is the pure diff between the basket and the placed-instance
// counts: every asset's quantity becomes its placed count. FirstQty survives
// a quantity change clamped to the new quantity; an asset entering the
// basket fresh defaults to one first-purchase copy. Assets no longer placed
// drop out. Existing line order is kept; new lines append in stable id
// order.
func Reconcile(items []Item, placed map[uuid.UUID]int) []Item {
	next := make([]Item, 0, len(placed))
	seen := make(map[uuid.UUID]struct{}, len(items))

	for _, item := range items {
		seen[item.AssetID] = struct{}{}
		qty, stillPlaced := placed[item.AssetID]
		if !stillPlaced || qty <= 0 {
			continue
		}
		first := item.FirstQty
		if first > qty {
			first = qty
		}
		if first < 0 {
			first = 0
		}
		next = append(next, Item{
			AssetID:   item.AssetID,
			Quantity:  qty,
			FirstQty:  first,
			RepeatQty: qty - first,
		})
	}

	var added []uuid.UUID
	for assetID, qty := range placed {
		if qty <= 0 {
			continue
		}
		if _, exists := seen[assetID]; exists {
			continue
		}
		added = append(added, assetID)
	}
	sort.Slice(added, func(i, j int) bool {
		return added[i].String() < added[j].String()
	})

	for _, assetID := range added {
		qty := placed[assetID]
		next = append(next, Item{
			AssetID:   assetID,
			Quantity:  qty,
			FirstQty:  1,
			RepeatQty: qty - 1,
		})
	}
	return next
}

// CountByAsset folds a placed-instance asset-id list into per-asset counts,
// the shape Reconcile consumes.
func CountByAsset(assetIDs []uuid.UUID) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int, len(assetIDs))
	for _, id := range assetIDs {
		counts[id]++
	}
	return counts
}
