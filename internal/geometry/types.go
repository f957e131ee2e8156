package geometry

// AABB is an asset's axis-aligned bounding box in metres.
type AABB struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Positive reports whether every extent is a positive finite size.
func (a AABB) Positive() bool {
	return a.X > 0 && a.Y > 0 && a.Z > 0
}

// Footprint is an asset's occupied size on the table grid, in whole cells.
type Footprint struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// Transpose swaps cols and rows, the 90-degree rotation of a footprint.
func (f Footprint) Transpose() Footprint {
	return Footprint{Cols: f.Rows, Rows: f.Cols}
}

// Cell is an integer grid coordinate. Cells are centred on integer multiples
// of the grid size, with the grid origin at world (0,0).
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Table is the placement surface as the occupancy core sees it: extents and
// grid pitch in metres. Display units never reach this type.
type Table struct {
	Width    float64
	Height   float64
	GridSize float64
}
