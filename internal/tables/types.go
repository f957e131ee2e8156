package tables

import (
	"time"

	"github.com/google/uuid"

	"github.com/terrainforge/backend/internal/geometry"
	"github.com/terrainforge/backend/internal/occupancy"
	"github.com/terrainforge/backend/internal/units"
)

// Instance is one placed asset copy as the editor sees it. Position is in
// table-plane metres, rotation is the free display rotation, tilts are
// rendering-only.
type Instance struct {
	ID          uuid.UUID `json:"id"`
	AssetID     uuid.UUID `json:"asset_id"`
	X           float64   `json:"x"`
	Z           float64   `json:"z"`
	RotationDeg float64   `json:"rotation_deg"`
	TiltXDeg    float64   `json:"tilt_x_deg"`
	TiltZDeg    float64   `json:"tilt_z_deg"`
}

// Table is a placement surface with its current instances. Dimensions are
// always metres; UnitDisplay only drives presentation.
type Table struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Width       float64    `json:"width_m"`
	Height      float64    `json:"height_m"`
	GridSize    float64    `json:"grid_size_m"`
	UnitDisplay units.Unit `json:"unit_display"`
	Instances   []Instance `json:"instances"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Geometry projects the table onto the shape the occupancy core consumes.
func (t Table) Geometry() geometry.Table {
	return geometry.Table{Width: t.Width, Height: t.Height, GridSize: t.GridSize}
}

func (i Instance) occupancyView() occupancy.Instance {
	return occupancy.Instance{
		ID:          i.ID,
		AssetID:     i.AssetID,
		X:           i.X,
		Z:           i.Z,
		RotationDeg: i.RotationDeg,
	}
}

func occupancyViews(instances []Instance) []occupancy.Instance {
	views := make([]occupancy.Instance, 0, len(instances))
	for _, inst := range instances {
		views = append(views, inst.occupancyView())
	}
	return views
}
