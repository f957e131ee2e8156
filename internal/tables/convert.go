package tables

import (
	"github.com/terrainforge/backend/internal/basket"
	"github.com/terrainforge/backend/internal/units"
	"github.com/terrainforge/backend/pkg/db/models"
)

func tableFromModel(record *models.TerrainTable) Table {
	instances := make([]Instance, 0, len(record.Instances))
	for i := range record.Instances {
		instances = append(instances, instanceFromModel(&record.Instances[i]))
	}
	return Table{
		ID:          record.ID,
		Name:        record.Name,
		Width:       record.WidthM,
		Height:      record.HeightM,
		GridSize:    record.GridSizeM,
		UnitDisplay: units.Unit(record.UnitDisplay),
		Instances:   instances,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func instanceFromModel(record *models.TableInstance) Instance {
	return Instance{
		ID:          record.ID,
		AssetID:     record.AssetID,
		X:           record.PosX,
		Z:           record.PosZ,
		RotationDeg: record.RotationDeg,
		TiltXDeg:    record.TiltXDeg,
		TiltZDeg:    record.TiltZDeg,
	}
}

// itemFromBasketModel converts a stored basket row into a domain item,
// translating deprecated flag-style rows through the legacy migration so the
// split invariant holds regardless of row vintage.
func itemFromBasketModel(record *models.BasketItem) basket.Item {
	if record.IsFirstPurchase != nil {
		return basket.MigrateLegacyItems([]basket.LegacyItem{{
			AssetID:         record.AssetID,
			Quantity:        record.Quantity,
			IsFirstPurchase: record.IsFirstPurchase,
		}})[0]
	}
	return basket.Item{
		AssetID:   record.AssetID,
		Quantity:  record.Quantity,
		FirstQty:  record.FirstQty,
		RepeatQty: record.RepeatQty,
	}
}

func itemsFromBasketModels(records []models.BasketItem) []basket.Item {
	items := make([]basket.Item, 0, len(records))
	for i := range records {
		items = append(items, itemFromBasketModel(&records[i]))
	}
	return items
}
