package occupancy

import (
	"testing"

	"github.com/google/uuid"

	"github.com/terrainforge/backend/internal/geometry"
)

var testTable = geometry.Table{Width: 1.8, Height: 1.2, GridSize: 0.3}

func footprintIndex(fp geometry.Footprint, ids ...uuid.UUID) map[uuid.UUID]geometry.Footprint {
	out := make(map[uuid.UUID]geometry.Footprint, len(ids))
	for _, id := range ids {
		out[id] = fp
	}
	return out
}

func TestAdjacentPlacementsDoNotCollide(t *testing.T) {
	assetID := uuid.New()
	footprints := footprintIndex(geometry.Footprint{Cols: 1, Rows: 1}, assetID)

	instances := []Instance{
		{ID: uuid.New(), AssetID: assetID, X: 0, Z: 0},
		{ID: uuid.New(), AssetID: assetID, X: 0.3, Z: 0},
	}

	occupied, skipped := BuildOccupiedSet(instances, footprints, testTable.GridSize)
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped instances: %v", skipped)
	}
	if len(occupied) != 2 {
		t.Fatalf("expected 2 occupied cells, got %d", len(occupied))
	}

	// A third copy on top of the first one collides.
	cells := geometry.FootprintCells(geometry.WorldToCell(0, 0, testTable.GridSize), footprints[assetID])
	if !Collides(cells, occupied) {
		t.Fatal("expected collision at (0,0)")
	}

	// The next free cell over does not.
	cells = geometry.FootprintCells(geometry.Cell{Col: 2, Row: 0}, footprints[assetID])
	if Collides(cells, occupied) {
		t.Fatal("expected no collision at (2,0)")
	}
}

func TestExclusionAllowsSelfOverlap(t *testing.T) {
	assetID := uuid.New()
	instanceID := uuid.New()
	footprints := footprintIndex(geometry.Footprint{Cols: 2, Rows: 1}, assetID)

	instances := []Instance{
		{ID: instanceID, AssetID: assetID, X: 0, Z: 0, RotationDeg: 0},
		{ID: uuid.New(), AssetID: assetID, X: 0, Z: 0.6},
	}

	// Moving an instance onto its own current cells must validate when the
	// occupancy set excludes it.
	anchor := geometry.WorldToCell(0, 0, testTable.GridSize)
	cells := geometry.FootprintCells(anchor, footprints[assetID])

	occupied, _ := BuildOccupiedSet(instances, footprints, testTable.GridSize, ExcludeInstance(instanceID))
	result := ValidatePlacement(cells, testTable, occupied)
	if !result.Valid() {
		t.Fatalf("self-move must validate, got %+v", result)
	}

	// Without the exclusion the same check self-collides.
	occupied, _ = BuildOccupiedSet(instances, footprints, testTable.GridSize)
	if !Collides(cells, occupied) {
		t.Fatal("expected self-collision without exclusion")
	}
}

func TestRotatedInstanceOccupiesTransposedCells(t *testing.T) {
	assetID := uuid.New()
	footprints := footprintIndex(geometry.Footprint{Cols: 2, Rows: 1}, assetID)

	instances := []Instance{
		{ID: uuid.New(), AssetID: assetID, X: 0, Z: 0, RotationDeg: 90},
	}
	occupied, _ := BuildOccupiedSet(instances, footprints, testTable.GridSize)

	if !occupied.Has(geometry.Cell{Col: 0, Row: 0}) || !occupied.Has(geometry.Cell{Col: 0, Row: 1}) {
		t.Fatalf("expected transposed cells occupied, got %v", occupied.Cells())
	}
	if occupied.Has(geometry.Cell{Col: 1, Row: 0}) {
		t.Fatal("unrotated cell should not be occupied at 90 degrees")
	}
}

func TestUnknownAssetsAreSkipped(t *testing.T) {
	knownAsset := uuid.New()
	footprints := footprintIndex(geometry.Footprint{Cols: 1, Rows: 1}, knownAsset)

	staleID := uuid.New()
	instances := []Instance{
		{ID: uuid.New(), AssetID: knownAsset, X: 0, Z: 0},
		{ID: staleID, AssetID: uuid.New(), X: 0.3, Z: 0},
	}

	occupied, skipped := BuildOccupiedSet(instances, footprints, testTable.GridSize)
	if len(occupied) != 1 {
		t.Fatalf("expected only the known instance's cell, got %d", len(occupied))
	}
	if len(skipped) != 1 || skipped[0] != staleID {
		t.Fatalf("expected stale instance reported, got %v", skipped)
	}
}

func TestValidatePlacementOutcomes(t *testing.T) {
	occupied := CellSet{}
	occupied.Add(geometry.Cell{Col: 1, Row: 0})

	free := []geometry.Cell{{Col: 0, Row: 0}}
	result := ValidatePlacement(free, testTable, occupied)
	if !result.Valid() || !result.InBounds || result.Collides {
		t.Fatalf("expected valid placement, got %+v", result)
	}

	colliding := []geometry.Cell{{Col: 1, Row: 0}}
	result = ValidatePlacement(colliding, testTable, occupied)
	if result.Valid() || !result.Collides {
		t.Fatalf("expected collision outcome, got %+v", result)
	}

	outside := []geometry.Cell{{Col: 9, Row: 0}}
	result = ValidatePlacement(outside, testTable, occupied)
	if result.Valid() || result.InBounds {
		t.Fatalf("expected out-of-bounds outcome, got %+v", result)
	}
}
