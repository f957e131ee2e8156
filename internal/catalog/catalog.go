package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terrainforge/backend/internal/geometry"
)

// Asset is a placeable catalog entry as the core sees it. BasePrice is the
// total customer-facing first-purchase price; nil means the asset cannot be
// priced.
type Asset struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	AABB            geometry.AABB      `json:"aabb"`
	Footprint       geometry.Footprint `json:"footprint"`
	RotationStepDeg int                `json:"rotation_step_deg"`
	BasePrice       *decimal.Decimal   `json:"base_price,omitempty"`
	Tags            []string           `json:"tags,omitempty"`
}

// Priceable reports whether a first-purchase price can be resolved.
func (a Asset) Priceable() bool {
	return a.BasePrice != nil
}

// Catalog is an immutable snapshot of the asset manifest for one editor
// session. It is built once and passed by reference into the core, so tests
// can inject distinct catalogs per run instead of sharing process state.
type Catalog struct {
	byID  map[uuid.UUID]Asset
	order []uuid.UUID
}

// NewCatalog indexes the given assets. Later duplicates of an id win.
func NewCatalog(assets []Asset) *Catalog {
	c := &Catalog{byID: make(map[uuid.UUID]Asset, len(assets))}
	for _, asset := range assets {
		if _, exists := c.byID[asset.ID]; !exists {
			c.order = append(c.order, asset.ID)
		}
		c.byID[asset.ID] = asset
	}
	return c
}

// AssetByID resolves an asset from the snapshot.
func (c *Catalog) AssetByID(id uuid.UUID) (Asset, bool) {
	asset, ok := c.byID[id]
	return asset, ok
}

// Assets returns the snapshot in load order.
func (c *Catalog) Assets() []Asset {
	out := make([]Asset, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Footprints returns the base (unrotated) footprint per asset id, the shape
// the occupancy layer consumes.
func (c *Catalog) Footprints() map[uuid.UUID]geometry.Footprint {
	out := make(map[uuid.UUID]geometry.Footprint, len(c.byID))
	for id, asset := range c.byID {
		out[id] = asset.Footprint
	}
	return out
}

// Len reports the snapshot size.
func (c *Catalog) Len() int {
	return len(c.byID)
}
