package tables

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/terrainforge/backend/internal/basket"
	"github.com/terrainforge/backend/internal/catalog"
	"github.com/terrainforge/backend/pkg/db/models"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Asset{},
		&models.TerrainTable{},
		&models.TableInstance{},
		&models.BasketItem{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM basket_items")
		db.Exec("DELETE FROM table_instances")
		db.Exec("DELETE FROM terrain_tables")
		db.Exec("DELETE FROM assets")
	})
	return db
}

type fixture struct {
	svc     Service
	catalog catalog.Service
	crate   catalog.Asset
	wall    catalog.Asset
}

func price(v string) *string { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)

	catSvc, err := catalog.NewService(catalog.NewRepository(db), nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	crate, err := catSvc.CreateAsset(ctx, catalog.CreateAssetInput{
		Name:      "Supply Crate",
		AABB:      [3]float64{0.3, 0.2, 0.3},
		BasePrice: price("349.00"),
	})
	if err != nil {
		t.Fatalf("seed crate: %v", err)
	}
	wall, err := catSvc.CreateAsset(ctx, catalog.CreateAssetInput{
		Name:      "Stone Wall Section",
		AABB:      [3]float64{0.62, 0.08, 0.12},
		BasePrice: price("84.00"),
	})
	if err != nil {
		t.Fatalf("seed wall: %v", err)
	}
	if wall.Footprint.Cols != 2 || wall.Footprint.Rows != 1 {
		t.Fatalf("expected 2x1 wall footprint, got %+v", wall.Footprint)
	}

	svc, err := NewService(NewRepository(db), catSvc, nil, nil)
	if err != nil {
		t.Fatalf("tables service: %v", err)
	}
	return &fixture{svc: svc, catalog: catSvc, crate: crate, wall: wall}
}

func (f *fixture) newTable(t *testing.T) Table {
	t.Helper()
	table, err := f.svc.CreateTable(context.Background(), CreateTableInput{
		Name:     "Skirmish Board",
		Width:    1.8,
		Height:   1.2,
		GridSize: 0.3,
	})
	if err != nil {
		t.Fatalf("CreateTable error = %v", err)
	}
	return table
}

func TestCreateTableUnitConversion(t *testing.T) {
	f := newFixture(t)

	table, err := f.svc.CreateTable(context.Background(), CreateTableInput{
		Name:     "Club Table",
		Width:    6,
		Height:   4,
		GridSize: 1,
		Unit:     "ft",
	})
	if err != nil {
		t.Fatalf("CreateTable error = %v", err)
	}
	if math.Abs(table.Width-1.8288) > 1e-4 || math.Abs(table.Height-1.2192) > 1e-4 {
		t.Fatalf("unexpected metre dimensions: %v x %v", table.Width, table.Height)
	}
	if table.UnitDisplay != "ft" {
		t.Fatalf("expected ft display unit, got %q", table.UnitDisplay)
	}

	cases := []CreateTableInput{
		{Name: "", Width: 1, Height: 1},
		{Name: "x", Width: 1, Height: 1, Unit: "furlong"},
		{Name: "x", Width: -1, Height: 1},
		{Name: "x", Width: 1, Height: 1, GridSize: 0.0001},
	}
	for i, input := range cases {
		if _, err := f.svc.CreateTable(context.Background(), input); pkgerrors.As(err) == nil {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestPlaceInstanceLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.newTable(t)

	inst, result, err := f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{
		AssetID: f.crate.ID, X: 0.02, Z: -0.01,
	})
	if err != nil {
		t.Fatalf("PlaceInstance error = %v", err)
	}
	if !result.Valid() {
		t.Fatalf("expected valid placement, got %+v", result)
	}
	// Committed position snaps to the anchor cell centre.
	if inst.X != 0 || inst.Z != 0 {
		t.Fatalf("expected snapped (0,0), got (%v,%v)", inst.X, inst.Z)
	}

	// Same cell again: collision, nothing persisted.
	_, result, err = f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{
		AssetID: f.crate.ID, X: 0, Z: 0,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if !result.Collides {
		t.Fatalf("expected collision flagged, got %+v", result)
	}

	// Far off the table: rejected on bounds.
	_, result, err = f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{
		AssetID: f.crate.ID, X: 5, Z: 3,
	})
	if pkgerrors.As(err) == nil || result.InBounds {
		t.Fatalf("expected out-of-bounds rejection, got result=%+v err=%v", result, err)
	}

	// Unknown asset id.
	_, _, err = f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{AssetID: uuid.New()})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found for ghost asset, got %v", err)
	}

	got, err := f.svc.GetTable(ctx, table.ID)
	if err != nil {
		t.Fatalf("GetTable error = %v", err)
	}
	if len(got.Instances) != 1 {
		t.Fatalf("expected 1 surviving instance, got %d", len(got.Instances))
	}
}

func TestBasketFollowsPlacements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.newTable(t)

	first, _, err := f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{AssetID: f.crate.ID, X: 0, Z: 0})
	if err != nil {
		t.Fatalf("place first crate: %v", err)
	}
	if _, _, err := f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{AssetID: f.crate.ID, X: 0.3, Z: 0}); err != nil {
		t.Fatalf("place second crate: %v", err)
	}

	items, err := f.svc.BasketItems(ctx, table.ID)
	if err != nil {
		t.Fatalf("BasketItems error = %v", err)
	}
	want := basket.Item{AssetID: f.crate.ID, Quantity: 2, FirstQty: 1, RepeatQty: 1}
	if len(items) != 1 || items[0] != want {
		t.Fatalf("basket = %+v, want [%+v]", items, want)
	}

	if err := f.svc.RemoveInstance(ctx, table.ID, first.ID); err != nil {
		t.Fatalf("RemoveInstance error = %v", err)
	}
	items, err = f.svc.BasketItems(ctx, table.ID)
	if err != nil {
		t.Fatalf("BasketItems error = %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 1 || items[0].FirstQty != 1 {
		t.Fatalf("basket after removal = %+v", items)
	}

	if err := f.svc.ClearTable(ctx, table.ID); err != nil {
		t.Fatalf("ClearTable error = %v", err)
	}
	items, err = f.svc.BasketItems(ctx, table.ID)
	if err != nil {
		t.Fatalf("BasketItems error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty basket, got %+v", items)
	}
}

func TestMoveInstanceRevertsInvalidTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.newTable(t)

	crate, _, err := f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{AssetID: f.crate.ID, X: 0, Z: 0})
	if err != nil {
		t.Fatalf("place crate: %v", err)
	}
	blocker, _, err := f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{AssetID: f.crate.ID, X: 0.3, Z: 0})
	if err != nil {
		t.Fatalf("place blocker: %v", err)
	}

	// Valid move commits.
	x, z := -0.3, 0.3
	moved, result, err := f.svc.MoveInstance(ctx, table.ID, crate.ID, MoveInstanceInput{X: &x, Z: &z})
	if err != nil {
		t.Fatalf("MoveInstance error = %v", err)
	}
	if !result.Valid() || moved.X != -0.3 || moved.Z != 0.3 {
		t.Fatalf("valid move not committed: result=%+v inst=%+v", result, moved)
	}

	// Move onto the blocker: the request is reported invalid and the
	// instance reverts to its pre-move pose.
	moved, result, err = f.svc.MoveInstance(ctx, table.ID, crate.ID, MoveInstanceInput{X: &blocker.X, Z: &blocker.Z})
	if err != nil {
		t.Fatalf("MoveInstance error = %v", err)
	}
	if result.Valid() {
		t.Fatal("expected collision result")
	}
	if moved.X != -0.3 || moved.Z != 0.3 {
		t.Fatalf("expected revert to (-0.3, 0.3), got (%v,%v)", moved.X, moved.Z)
	}

	// Moving a ghost instance fails cleanly.
	_, _, err = f.svc.MoveInstance(ctx, table.ID, uuid.New(), MoveInstanceInput{X: &x})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestCheckPlacementDryRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.newTable(t)

	crate, _, err := f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{AssetID: f.crate.ID, X: 0, Z: 0})
	if err != nil {
		t.Fatalf("place crate: %v", err)
	}

	// The occupied cell reads as a collision for a fresh ghost...
	report, err := f.svc.CheckPlacement(ctx, table.ID, PlacementQuery{AssetID: f.crate.ID, X: 0, Z: 0})
	if err != nil {
		t.Fatalf("CheckPlacement error = %v", err)
	}
	if report.Result.Valid() || !report.Result.Collides {
		t.Fatalf("expected collision, got %+v", report.Result)
	}

	// ...but not for the instance being dragged over its own cells.
	report, err = f.svc.CheckPlacement(ctx, table.ID, PlacementQuery{
		AssetID: f.crate.ID, X: 0, Z: 0, ExcludeInstanceID: &crate.ID,
	})
	if err != nil {
		t.Fatalf("CheckPlacement error = %v", err)
	}
	if !report.Result.Valid() {
		t.Fatalf("self-exclusion failed: %+v", report.Result)
	}

	// Rotation snapping and the transposed footprint surface in the report.
	report, err = f.svc.CheckPlacement(ctx, table.ID, PlacementQuery{
		AssetID: f.wall.ID, X: -0.6, Z: 0, RotationDeg: 93,
	})
	if err != nil {
		t.Fatalf("CheckPlacement error = %v", err)
	}
	if report.SnappedRotationDeg != 90 {
		t.Fatalf("expected snap to 90, got %d", report.SnappedRotationDeg)
	}
	if report.Footprint.Cols != 1 || report.Footprint.Rows != 2 {
		t.Fatalf("expected transposed 1x2 footprint, got %+v", report.Footprint)
	}
}

func TestUpdateTableRejectsStrandingResize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.newTable(t)

	// An instance at the table's right edge.
	if _, _, err := f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{AssetID: f.crate.ID, X: 0.6, Z: 0}); err != nil {
		t.Fatalf("place crate: %v", err)
	}

	width := 0.9
	_, err := f.svc.UpdateTable(ctx, table.ID, UpdateTableInput{Width: &width})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on shrink, got %v", err)
	}

	// Renaming alone is always safe.
	name := "Renamed Board"
	updated, err := f.svc.UpdateTable(ctx, table.ID, UpdateTableInput{Name: &name})
	if err != nil {
		t.Fatalf("UpdateTable error = %v", err)
	}
	if updated.Name != name {
		t.Fatalf("rename not applied: %+v", updated)
	}
}

func TestLegacyBasketRowsMigrateOnSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.newTable(t)

	if _, _, err := f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{AssetID: f.crate.ID, X: 0, Z: 0}); err != nil {
		t.Fatalf("place crate: %v", err)
	}
	if _, _, err := f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{AssetID: f.crate.ID, X: 0.3, Z: 0}); err != nil {
		t.Fatalf("place crate: %v", err)
	}

	// Simulate a legacy row: flag set, no explicit split.
	flag := true
	repo := f.svc.(*service).repo
	if err := repo.ReplaceBasketItems(ctx, table.ID, []models.BasketItem{{
		AssetID:         f.crate.ID,
		Quantity:        2,
		IsFirstPurchase: &flag,
	}}); err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}

	items, err := f.svc.SyncBasket(ctx, table.ID)
	if err != nil {
		t.Fatalf("SyncBasket error = %v", err)
	}
	want := basket.Item{AssetID: f.crate.ID, Quantity: 2, FirstQty: 1, RepeatQty: 1}
	if len(items) != 1 || items[0] != want {
		t.Fatalf("migrated basket = %+v, want [%+v]", items, want)
	}

	// The rewritten row no longer carries the flag.
	rows, err := repo.ListBasketItems(ctx, table.ID)
	if err != nil {
		t.Fatalf("ListBasketItems error = %v", err)
	}
	if len(rows) != 1 || rows[0].IsFirstPurchase != nil {
		t.Fatalf("expected flag cleared, got %+v", rows)
	}
}

func TestDeleteTableCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.newTable(t)

	if _, _, err := f.svc.PlaceInstance(ctx, table.ID, PlaceInstanceInput{AssetID: f.crate.ID, X: 0, Z: 0}); err != nil {
		t.Fatalf("place crate: %v", err)
	}
	if err := f.svc.DeleteTable(ctx, table.ID); err != nil {
		t.Fatalf("DeleteTable error = %v", err)
	}

	_, err := f.svc.GetTable(ctx, table.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}
