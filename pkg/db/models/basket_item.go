package models

import (
	"time"

	"github.com/google/uuid"
)

// BasketItem is a commerce-side line, distinct from placed instances.
// first_qty + repeat_qty must always equal quantity.
//
// is_first_purchase is the deprecated single-flag representation; rows still
// carrying it are translated to the explicit split once at load and the flag
// is never consulted by pricing.
type BasketItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TableID         uuid.UUID `gorm:"column:table_id;type:uuid;not null;index"`
	AssetID         uuid.UUID `gorm:"column:asset_id;type:uuid;not null;index"`
	Quantity        int       `gorm:"column:quantity;not null"`
	FirstQty        int       `gorm:"column:first_qty;not null;default:0"`
	RepeatQty       int       `gorm:"column:repeat_qty;not null;default:0"`
	IsFirstPurchase *bool     `gorm:"column:is_first_purchase"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (BasketItem) TableName() string {
	return "basket_items"
}
