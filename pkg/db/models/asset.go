package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Asset is the canonical catalog entry for a placeable terrain model.
// AABB extents are metres; the footprint is whole grid cells.
type Asset struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name            string           `gorm:"column:name;not null"`
	AABBX           float64          `gorm:"column:aabb_x;not null"`
	AABBY           float64          `gorm:"column:aabb_y;not null"`
	AABBZ           float64          `gorm:"column:aabb_z;not null"`
	FootprintCols   int              `gorm:"column:footprint_cols;not null;default:1"`
	FootprintRows   int              `gorm:"column:footprint_rows;not null;default:1"`
	RotationStepDeg int              `gorm:"column:rotation_step_deg;not null;default:90"`
	BasePrice       *decimal.Decimal `gorm:"column:base_price;type:numeric(12,2)"`
	Tags            pq.StringArray   `gorm:"column:tags;type:text[]"`
	IsActive        bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralisation.
func (Asset) TableName() string {
	return "assets"
}
