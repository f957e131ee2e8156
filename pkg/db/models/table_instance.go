package models

import (
	"time"

	"github.com/google/uuid"
)

// TableInstance is one placed copy of an asset on a table. Position is in
// table-plane metres; rotation_deg is the display rotation, tilt values are
// rendering-only and never enter occupancy math.
type TableInstance struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TableID     uuid.UUID `gorm:"column:table_id;type:uuid;not null;index"`
	AssetID     uuid.UUID `gorm:"column:asset_id;type:uuid;not null;index"`
	PosX        float64   `gorm:"column:pos_x;not null"`
	PosZ        float64   `gorm:"column:pos_z;not null"`
	RotationDeg float64   `gorm:"column:rotation_deg;not null;default:0"`
	TiltXDeg    float64   `gorm:"column:tilt_x_deg;not null;default:0"`
	TiltZDeg    float64   `gorm:"column:tilt_z_deg;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TableInstance) TableName() string {
	return "table_instances"
}
