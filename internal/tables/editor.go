package tables

import (
	"github.com/google/uuid"

	"github.com/terrainforge/backend/internal/geometry"
	"github.com/terrainforge/backend/internal/occupancy"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

// Drag is one in-flight manipulation of a placed instance. Every move or
// rotate tick is validated against the table with the dragged instance's own
// cells excluded; the last valid pose is remembered so releasing over an
// invalid spot commits that pose instead of failing. The drag itself never
// touches storage.
type Drag struct {
	table     geometry.Table
	footprint geometry.Footprint

	occupied occupancy.CellSet
	original occupancy.Instance
	current  occupancy.Instance
	valid    occupancy.Instance
}

// BeginDrag starts a manipulation of the given instance. Instances whose
// asset id is missing from footprints are skipped when building the occupied
// set and reported back for logging; the dragged instance itself must
// resolve. The pre-drag pose seeds the last-valid pose.
func BeginDrag(
	table geometry.Table,
	instances []occupancy.Instance,
	footprints map[uuid.UUID]geometry.Footprint,
	instanceID uuid.UUID,
) (*Drag, []uuid.UUID, error) {
	var target *occupancy.Instance
	for i := range instances {
		if instances[i].ID == instanceID {
			target = &instances[i]
			break
		}
	}
	if target == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "instance not on table").
			WithDetails(map[string]any{"instance_id": instanceID})
	}
	base, known := footprints[target.AssetID]
	if !known {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "instance references an unknown asset").
			WithDetails(map[string]any{"instance_id": instanceID, "asset_id": target.AssetID})
	}

	occupied, skipped := occupancy.BuildOccupiedSet(
		instances, footprints, table.GridSize,
		occupancy.ExcludeInstance(instanceID),
	)

	return &Drag{
		table:     table,
		footprint: base,
		occupied:  occupied,
		original:  *target,
		current:   *target,
		valid:     *target,
	}, skipped, nil
}

// MoveTo updates the dragged position and revalidates.
func (d *Drag) MoveTo(x, z float64) occupancy.Result {
	d.current.X = x
	d.current.Z = z
	return d.validate()
}

// RotateTo updates the display rotation and revalidates. The footprint only
// changes when the rotation crosses a 90-degree snap boundary.
func (d *Drag) RotateTo(deg float64) occupancy.Result {
	d.current.RotationDeg = deg
	return d.validate()
}

// Check revalidates the current pose without moving it.
func (d *Drag) Check() occupancy.Result {
	return d.validate()
}

func (d *Drag) validate() occupancy.Result {
	fp := geometry.FootprintFor(d.footprint, d.current.RotationDeg)
	anchor := geometry.WorldToCell(d.current.X, d.current.Z, d.table.GridSize)
	cells := geometry.FootprintCells(anchor, fp)

	result := occupancy.ValidatePlacement(cells, d.table, d.occupied)
	if result.Valid() {
		d.valid = d.current
	}
	return result
}

// End releases the drag: the last valid pose wins, snapped to its anchor
// cell's centre. When no tick since the grab was valid this is the pre-drag
// pose, a revert. The second return reports whether the pose changed.
func (d *Drag) End() (occupancy.Instance, bool) {
	committed := d.valid
	committed.X, committed.Z = geometry.CellToWorld(
		geometry.WorldToCell(committed.X, committed.Z, d.table.GridSize),
		d.table.GridSize,
	)
	moved := committed.X != d.original.X ||
		committed.Z != d.original.Z ||
		committed.RotationDeg != d.original.RotationDeg
	return committed, moved
}
