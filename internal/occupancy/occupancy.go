package occupancy

import (
	"github.com/google/uuid"

	"github.com/terrainforge/backend/internal/geometry"
)

// Instance is the occupancy-relevant view of a placed asset: position in
// table-plane metres plus the display rotation it was committed with.
type Instance struct {
	ID          uuid.UUID
	AssetID     uuid.UUID
	X           float64
	Z           float64
	RotationDeg float64
}

// CellSet is the union of grid cells covered by placed instances.
type CellSet map[geometry.Cell]struct{}

// Has reports membership.
func (s CellSet) Has(cell geometry.Cell) bool {
	_, ok := s[cell]
	return ok
}

// Add inserts a cell.
func (s CellSet) Add(cell geometry.Cell) {
	s[cell] = struct{}{}
}

// Cells returns the members as a slice, for rendering grid highlights.
func (s CellSet) Cells() []geometry.Cell {
	cells := make([]geometry.Cell, 0, len(s))
	for cell := range s {
		cells = append(cells, cell)
	}
	return cells
}

type buildOptions struct {
	excluded map[uuid.UUID]struct{}
}

// Option tweaks occupancy set construction.
type Option func(*buildOptions)

// ExcludeInstance leaves an instance's own cells out of the set. Required
// when validating a move/rotate, or every move would collide with itself.
func ExcludeInstance(id uuid.UUID) Option {
	return func(o *buildOptions) {
		if o.excluded == nil {
			o.excluded = map[uuid.UUID]struct{}{}
		}
		o.excluded[id] = struct{}{}
	}
}

// BuildOccupiedSet unions the footprint cells of every instance, anchored at
// each instance's cell under its collision-snapped rotation. Instances whose
// asset id is not in footprints are skipped and reported back so the caller
// can log the stale reference.
func BuildOccupiedSet(
	instances []Instance,
	footprints map[uuid.UUID]geometry.Footprint,
	gridSize float64,
	opts ...Option,
) (CellSet, []uuid.UUID) {
	var options buildOptions
	for _, opt := range opts {
		opt(&options)
	}

	occupied := make(CellSet)
	var skipped []uuid.UUID

	for _, inst := range instances {
		if _, excluded := options.excluded[inst.ID]; excluded {
			continue
		}
		base, known := footprints[inst.AssetID]
		if !known {
			skipped = append(skipped, inst.ID)
			continue
		}
		fp := geometry.FootprintFor(base, inst.RotationDeg)
		anchor := geometry.WorldToCell(inst.X, inst.Z, gridSize)
		for _, cell := range geometry.FootprintCells(anchor, fp) {
			occupied.Add(cell)
		}
	}
	return occupied, skipped
}

// Collides reports whether any candidate cell is already occupied.
func Collides(cells []geometry.Cell, occupied CellSet) bool {
	for _, cell := range cells {
		if occupied.Has(cell) {
			return true
		}
	}
	return false
}

// Result is the outcome of a composite placement validation. Invalid is a
// normal answer here, not an error: the caller turns it into a revert or a
// red highlight.
type Result struct {
	InBounds bool            `json:"in_bounds"`
	Collides bool            `json:"collides"`
	Cells    []geometry.Cell `json:"cells"`
}

// Valid reports whether the placement can be committed.
func (r Result) Valid() bool {
	return r.InBounds && !r.Collides
}

// ValidatePlacement runs the composite check used on every interaction tick:
// bounds against the table, then collision against the occupied set.
func ValidatePlacement(cells []geometry.Cell, table geometry.Table, occupied CellSet) Result {
	return Result{
		InBounds: geometry.InBounds(cells, table),
		Collides: Collides(cells, occupied),
		Cells:    cells,
	}
}
