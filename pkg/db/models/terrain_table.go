package models

import (
	"time"

	"github.com/google/uuid"
)

// TerrainTable is a placement surface. Width, height and grid size are always
// stored in metres; unit_display only affects presentation.
type TerrainTable struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	WidthM      float64         `gorm:"column:width_m;not null"`
	HeightM     float64         `gorm:"column:height_m;not null"`
	GridSizeM   float64         `gorm:"column:grid_size_m;not null"`
	UnitDisplay string          `gorm:"column:unit_display;not null;default:m"`
	Instances   []TableInstance `gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (TerrainTable) TableName() string {
	return "terrain_tables"
}
