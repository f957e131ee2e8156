package geometry

import (
	"math"

	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

// MinGridSize is the smallest accepted grid pitch in metres. Anything below
// this is treated as an input contract violation.
const MinGridSize = 0.001

// boundsEpsilon absorbs float error when a cell edge lands exactly on the
// table edge.
const boundsEpsilon = 1e-9

// DeriveFootprint maps an AABB to whole grid cells, clamped to at least 1x1
// so sub-cell assets still occupy their anchor cell.
func DeriveFootprint(aabb AABB, gridSize float64) (Footprint, error) {
	if !aabb.Positive() {
		return Footprint{}, pkgerrors.New(pkgerrors.CodeValidation, "aabb extents must be positive").
			WithDetails(map[string]any{"aabb": aabb})
	}
	if gridSize < MinGridSize {
		return Footprint{}, pkgerrors.New(pkgerrors.CodeValidation, "grid size too small").
			WithDetails(map[string]any{"grid_size": gridSize, "min": MinGridSize})
	}

	cols := int(math.Round(aabb.X / gridSize))
	rows := int(math.Round(aabb.Z / gridSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return Footprint{Cols: cols, Rows: rows}, nil
}

// WorldToCell resolves the anchor cell for a world position by rounding to
// the nearest grid node.
func WorldToCell(x, z, gridSize float64) Cell {
	return Cell{
		Col: int(math.Round(x / gridSize)),
		Row: int(math.Round(z / gridSize)),
	}
}

// CellToWorld returns the world-space centre of a cell.
func CellToWorld(cell Cell, gridSize float64) (x, z float64) {
	return float64(cell.Col) * gridSize, float64(cell.Row) * gridSize
}

// FootprintCells expands a footprint anchored at its minimum-corner cell into
// the full rectangular block of cells. The same expansion backs both the
// ghost preview and the committed placement.
func FootprintCells(anchor Cell, fp Footprint) []Cell {
	if fp.Cols < 1 || fp.Rows < 1 {
		return nil
	}
	cells := make([]Cell, 0, fp.Cols*fp.Rows)
	for col := 0; col < fp.Cols; col++ {
		for row := 0; row < fp.Rows; row++ {
			cells = append(cells, Cell{Col: anchor.Col + col, Row: anchor.Row + row})
		}
	}
	return cells
}

// InBounds reports whether every cell's world-space extent lies within the
// table rectangle [-width/2, width/2] x [-height/2, height/2]. A footprint
// larger than the table is simply never in bounds; that is rejection, not an
// error.
func InBounds(cells []Cell, table Table) bool {
	if table.Width <= 0 || table.Height <= 0 || table.GridSize < MinGridSize {
		return false
	}
	half := table.GridSize / 2
	maxX := table.Width/2 + boundsEpsilon
	maxZ := table.Height/2 + boundsEpsilon
	for _, cell := range cells {
		cx, cz := CellToWorld(cell, table.GridSize)
		if cx-half < -maxX || cx+half > maxX {
			return false
		}
		if cz-half < -maxZ || cz+half > maxZ {
			return false
		}
	}
	return true
}
