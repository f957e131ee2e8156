package tables

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/terrainforge/backend/internal/basket"
	"github.com/terrainforge/backend/internal/catalog"
	"github.com/terrainforge/backend/internal/geometry"
	"github.com/terrainforge/backend/internal/occupancy"
	"github.com/terrainforge/backend/internal/units"
	"github.com/terrainforge/backend/pkg/db/models"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
	"github.com/terrainforge/backend/pkg/logger"
	"github.com/terrainforge/backend/pkg/metrics"
)

// Service exposes table CRUD, placement edits and basket synchronisation.
type Service interface {
	CreateTable(ctx context.Context, input CreateTableInput) (Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (Table, error)
	ListTables(ctx context.Context) ([]Table, error)
	UpdateTable(ctx context.Context, id uuid.UUID, input UpdateTableInput) (Table, error)
	DeleteTable(ctx context.Context, id uuid.UUID) error

	PlaceInstance(ctx context.Context, tableID uuid.UUID, input PlaceInstanceInput) (Instance, occupancy.Result, error)
	MoveInstance(ctx context.Context, tableID, instanceID uuid.UUID, input MoveInstanceInput) (Instance, occupancy.Result, error)
	RemoveInstance(ctx context.Context, tableID, instanceID uuid.UUID) error
	ClearTable(ctx context.Context, tableID uuid.UUID) error

	CheckPlacement(ctx context.Context, tableID uuid.UUID, query PlacementQuery) (PlacementReport, error)

	BasketItems(ctx context.Context, tableID uuid.UUID) ([]basket.Item, error)
	SyncBasket(ctx context.Context, tableID uuid.UUID) ([]basket.Item, error)
}

type service struct {
	repo    TableRepository
	catalog catalog.Service
	metrics *metrics.EditorMetrics
	logg    *logger.Logger
}

// NewService builds the tables service. Metrics and logger are optional.
func NewService(repo TableRepository, cat catalog.Service, m *metrics.EditorMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("table repository required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &service{repo: repo, catalog: cat, metrics: m, logg: logg}, nil
}

// CreateTableInput carries the new-table dimensions in the caller's unit.
type CreateTableInput struct {
	Name     string
	Width    float64
	Height   float64
	GridSize float64
	Unit     string
}

// CreateTable converts the dimensions to metres and persists the table. A
// zero grid size falls back to the catalog default pitch.
func (s *service) CreateTable(ctx context.Context, input CreateTableInput) (Table, error) {
	if input.Name == "" {
		return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "table name is required")
	}
	unit := input.Unit
	if unit == "" {
		unit = string(units.Metres)
	}
	parsed, err := units.Parse(unit)
	if err != nil {
		return Table{}, err
	}

	widthM, err := units.ToMetres(input.Width, parsed)
	if err != nil {
		return Table{}, err
	}
	heightM, err := units.ToMetres(input.Height, parsed)
	if err != nil {
		return Table{}, err
	}
	gridM := catalog.DefaultGridSize
	if input.GridSize != 0 {
		if gridM, err = units.ToMetres(input.GridSize, parsed); err != nil {
			return Table{}, err
		}
	}

	if widthM <= 0 || heightM <= 0 {
		return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "table dimensions must be positive")
	}
	if gridM < geometry.MinGridSize {
		return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "grid size too small").
			WithDetails(map[string]any{"grid_size_m": gridM, "min": geometry.MinGridSize})
	}

	record := &models.TerrainTable{
		Name:        input.Name,
		WidthM:      widthM,
		HeightM:     heightM,
		GridSizeM:   gridM,
		UnitDisplay: string(parsed),
	}
	if _, err := s.repo.CreateTable(ctx, record); err != nil {
		return Table{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist table")
	}
	return tableFromModel(record), nil
}

// GetTable loads a table with its instances.
func (s *service) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	record, err := s.loadTable(ctx, id)
	if err != nil {
		return Table{}, err
	}
	return tableFromModel(record), nil
}

// ListTables returns all tables without instances.
func (s *service) ListTables(ctx context.Context) ([]Table, error) {
	records, err := s.repo.ListTables(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tables")
	}
	tables := make([]Table, 0, len(records))
	for i := range records {
		tables = append(tables, tableFromModel(&records[i]))
	}
	return tables, nil
}

// UpdateTableInput carries optional table-level changes. Dimensions are in
// the table's (possibly updated) display unit.
type UpdateTableInput struct {
	Name     *string
	Unit     *string
	Width    *float64
	Height   *float64
	GridSize *float64
}

// UpdateTable applies the changes, converting dimensions to metres. A resize
// or grid change that would strand any placed instance out of bounds or in
// collision is rejected rather than applied.
func (s *service) UpdateTable(ctx context.Context, id uuid.UUID, input UpdateTableInput) (Table, error) {
	record, err := s.loadTable(ctx, id)
	if err != nil {
		return Table{}, err
	}

	unit := units.Unit(record.UnitDisplay)
	if input.Unit != nil {
		if unit, err = units.Parse(*input.Unit); err != nil {
			return Table{}, err
		}
		record.UnitDisplay = string(unit)
	}
	if input.Name != nil {
		if *input.Name == "" {
			return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "table name is required")
		}
		record.Name = *input.Name
	}
	if input.Width != nil {
		if record.WidthM, err = units.ToMetres(*input.Width, unit); err != nil {
			return Table{}, err
		}
	}
	if input.Height != nil {
		if record.HeightM, err = units.ToMetres(*input.Height, unit); err != nil {
			return Table{}, err
		}
	}
	if input.GridSize != nil {
		if record.GridSizeM, err = units.ToMetres(*input.GridSize, unit); err != nil {
			return Table{}, err
		}
	}
	if record.WidthM <= 0 || record.HeightM <= 0 {
		return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "table dimensions must be positive")
	}
	if record.GridSizeM < geometry.MinGridSize {
		return Table{}, pkgerrors.New(pkgerrors.CodeValidation, "grid size too small")
	}

	table := tableFromModel(record)
	if len(table.Instances) > 0 {
		if err := s.revalidateAll(ctx, table); err != nil {
			return Table{}, err
		}
	}

	if err := s.repo.UpdateTable(ctx, record); err != nil {
		return Table{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist table update")
	}
	return table, nil
}

// revalidateAll re-checks every placed instance against the (changed) table
// geometry. Instances are validated one at a time with their own cells
// excluded, the same check a fresh placement would get.
func (s *service) revalidateAll(ctx context.Context, table Table) error {
	footprints, err := s.footprints(ctx)
	if err != nil {
		return err
	}
	views := occupancyViews(table.Instances)
	for _, inst := range table.Instances {
		base, known := footprints[inst.AssetID]
		if !known {
			continue
		}
		occupied, _ := occupancy.BuildOccupiedSet(
			views, footprints, table.GridSize,
			occupancy.ExcludeInstance(inst.ID),
		)
		fp := geometry.FootprintFor(base, inst.RotationDeg)
		anchor := geometry.WorldToCell(inst.X, inst.Z, table.GridSize)
		result := occupancy.ValidatePlacement(geometry.FootprintCells(anchor, fp), table.Geometry(), occupied)
		if !result.Valid() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "change would invalidate a placed instance").
				WithDetails(map[string]any{
					"instance_id": inst.ID,
					"in_bounds":   result.InBounds,
					"collides":    result.Collides,
				})
		}
	}
	return nil
}

// DeleteTable removes a table with its instances and basket rows.
func (s *service) DeleteTable(ctx context.Context, id uuid.UUID) error {
	if _, err := s.loadTable(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTable(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete table")
	}
	return nil
}

// PlaceInstanceInput is a requested placement in table-plane metres.
type PlaceInstanceInput struct {
	AssetID     uuid.UUID
	X           float64
	Z           float64
	RotationDeg float64
	TiltXDeg    float64
	TiltZDeg    float64
}

// PlaceInstance validates the requested spot and, when valid, persists the
// instance snapped to its anchor cell and resyncs the basket. An invalid
// spot is a rejection with the bounds/collision breakdown, not a server
// fault.
func (s *service) PlaceInstance(ctx context.Context, tableID uuid.UUID, input PlaceInstanceInput) (Instance, occupancy.Result, error) {
	record, err := s.loadTable(ctx, tableID)
	if err != nil {
		return Instance{}, occupancy.Result{}, err
	}
	table := tableFromModel(record)

	footprints, err := s.footprints(ctx)
	if err != nil {
		return Instance{}, occupancy.Result{}, err
	}
	base, known := footprints[input.AssetID]
	if !known {
		return Instance{}, occupancy.Result{}, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found").
			WithDetails(map[string]any{"asset_id": input.AssetID})
	}

	occupied, skipped := occupancy.BuildOccupiedSet(
		occupancyViews(table.Instances), footprints, table.GridSize,
	)
	s.logSkipped(ctx, tableID, skipped)

	fp := geometry.FootprintFor(base, input.RotationDeg)
	anchor := geometry.WorldToCell(input.X, input.Z, table.GridSize)
	result := occupancy.ValidatePlacement(geometry.FootprintCells(anchor, fp), table.Geometry(), occupied)
	s.metrics.ObservePlacement(resultLabel(result))

	if !result.Valid() {
		return Instance{}, result, pkgerrors.New(pkgerrors.CodeStateConflict, "placement rejected").
			WithDetails(map[string]any{"in_bounds": result.InBounds, "collides": result.Collides})
	}

	x, z := geometry.CellToWorld(anchor, table.GridSize)
	inst := &models.TableInstance{
		TableID:     tableID,
		AssetID:     input.AssetID,
		PosX:        x,
		PosZ:        z,
		RotationDeg: geometry.NormalizeDegrees(input.RotationDeg),
		TiltXDeg:    input.TiltXDeg,
		TiltZDeg:    input.TiltZDeg,
	}
	if _, err := s.repo.CreateInstance(ctx, inst); err != nil {
		return Instance{}, result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist instance")
	}
	if _, err := s.SyncBasket(ctx, tableID); err != nil {
		return Instance{}, result, err
	}
	return instanceFromModel(inst), result, nil
}

// MoveInstanceInput is a requested move and/or rotation. Nil fields keep the
// current value.
type MoveInstanceInput struct {
	X           *float64
	Z           *float64
	RotationDeg *float64
	TiltXDeg    *float64
	TiltZDeg    *float64
}

// MoveInstance runs the requested manipulation through a drag session: the
// target pose is validated with the instance's own cells excluded, and an
// invalid target reverts to the pre-move pose instead of failing. The
// returned result describes the requested pose; the returned instance is
// what was actually committed.
func (s *service) MoveInstance(ctx context.Context, tableID, instanceID uuid.UUID, input MoveInstanceInput) (Instance, occupancy.Result, error) {
	record, err := s.loadTable(ctx, tableID)
	if err != nil {
		return Instance{}, occupancy.Result{}, err
	}
	table := tableFromModel(record)

	footprints, err := s.footprints(ctx)
	if err != nil {
		return Instance{}, occupancy.Result{}, err
	}

	drag, skipped, err := BeginDrag(table.Geometry(), occupancyViews(table.Instances), footprints, instanceID)
	if err != nil {
		return Instance{}, occupancy.Result{}, err
	}
	s.logSkipped(ctx, tableID, skipped)

	current, err := s.repo.GetInstance(ctx, instanceID)
	if err != nil {
		return Instance{}, occupancy.Result{}, s.mapInstanceErr(err)
	}

	x, z := current.PosX, current.PosZ
	if input.X != nil {
		x = *input.X
	}
	if input.Z != nil {
		z = *input.Z
	}
	result := drag.MoveTo(x, z)
	if input.RotationDeg != nil {
		result = drag.RotateTo(*input.RotationDeg)
	}
	s.metrics.ObservePlacement(resultLabel(result))

	committed, _ := drag.End()
	current.PosX = committed.X
	current.PosZ = committed.Z
	current.RotationDeg = geometry.NormalizeDegrees(committed.RotationDeg)
	if input.TiltXDeg != nil {
		current.TiltXDeg = *input.TiltXDeg
	}
	if input.TiltZDeg != nil {
		current.TiltZDeg = *input.TiltZDeg
	}
	if err := s.repo.UpdateInstance(ctx, current); err != nil {
		return Instance{}, result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist instance move")
	}
	return instanceFromModel(current), result, nil
}

// RemoveInstance deletes one placed instance and resyncs the basket.
func (s *service) RemoveInstance(ctx context.Context, tableID, instanceID uuid.UUID) error {
	inst, err := s.repo.GetInstance(ctx, instanceID)
	if err != nil {
		return s.mapInstanceErr(err)
	}
	if inst.TableID != tableID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "instance not on table")
	}
	if err := s.repo.DeleteInstance(ctx, instanceID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete instance")
	}
	_, err = s.SyncBasket(ctx, tableID)
	return err
}

// ClearTable removes every placed instance and empties the basket.
func (s *service) ClearTable(ctx context.Context, tableID uuid.UUID) error {
	if _, err := s.loadTable(ctx, tableID); err != nil {
		return err
	}
	if err := s.repo.DeleteInstancesByTable(ctx, tableID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear table")
	}
	_, err := s.SyncBasket(ctx, tableID)
	return err
}

// PlacementQuery is a dry-run placement check. ExcludeInstanceID carries the
// dragged instance's id so a move never collides with itself.
type PlacementQuery struct {
	AssetID           uuid.UUID
	X                 float64
	Z                 float64
	RotationDeg       float64
	ExcludeInstanceID *uuid.UUID
}

// PlacementReport is the dry-run outcome with the derived geometry the
// client needs to render the ghost.
type PlacementReport struct {
	Result             occupancy.Result   `json:"result"`
	SnappedRotationDeg int                `json:"snapped_rotation_deg"`
	Footprint          geometry.Footprint `json:"footprint"`
	Anchor             geometry.Cell      `json:"anchor"`
}

// CheckPlacement validates a spot without persisting anything, the
// per-interaction-tick check behind the editor's green/red highlight.
func (s *service) CheckPlacement(ctx context.Context, tableID uuid.UUID, query PlacementQuery) (PlacementReport, error) {
	record, err := s.loadTable(ctx, tableID)
	if err != nil {
		return PlacementReport{}, err
	}
	table := tableFromModel(record)

	footprints, err := s.footprints(ctx)
	if err != nil {
		return PlacementReport{}, err
	}
	base, known := footprints[query.AssetID]
	if !known {
		return PlacementReport{}, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found").
			WithDetails(map[string]any{"asset_id": query.AssetID})
	}

	var opts []occupancy.Option
	if query.ExcludeInstanceID != nil {
		opts = append(opts, occupancy.ExcludeInstance(*query.ExcludeInstanceID))
	}
	occupied, skipped := occupancy.BuildOccupiedSet(
		occupancyViews(table.Instances), footprints, table.GridSize, opts...,
	)
	s.logSkipped(ctx, tableID, skipped)

	fp := geometry.FootprintFor(base, query.RotationDeg)
	anchor := geometry.WorldToCell(query.X, query.Z, table.GridSize)
	result := occupancy.ValidatePlacement(geometry.FootprintCells(anchor, fp), table.Geometry(), occupied)
	s.metrics.ObservePlacement(resultLabel(result))

	return PlacementReport{
		Result:             result,
		SnappedRotationDeg: geometry.SnapRotation(query.RotationDeg),
		Footprint:          fp,
		Anchor:             anchor,
	}, nil
}

// BasketItems returns the table's basket lines with legacy rows migrated.
func (s *service) BasketItems(ctx context.Context, tableID uuid.UUID) ([]basket.Item, error) {
	records, err := s.repo.ListBasketItems(ctx, tableID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list basket items")
	}
	return itemsFromBasketModels(records), nil
}

// SyncBasket reconciles the basket against the placed-instance counts and
// persists the result. Rewritten rows drop the deprecated flag for good.
func (s *service) SyncBasket(ctx context.Context, tableID uuid.UUID) ([]basket.Item, error) {
	record, err := s.loadTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	assetIDs := make([]uuid.UUID, 0, len(record.Instances))
	for i := range record.Instances {
		assetIDs = append(assetIDs, record.Instances[i].AssetID)
	}

	items, err := s.BasketItems(ctx, tableID)
	if err != nil {
		return nil, err
	}
	next := basket.Reconcile(items, basket.CountByAsset(assetIDs))

	rows := make([]models.BasketItem, 0, len(next))
	for _, item := range next {
		rows = append(rows, models.BasketItem{
			TableID:   tableID,
			AssetID:   item.AssetID,
			Quantity:  item.Quantity,
			FirstQty:  item.FirstQty,
			RepeatQty: item.RepeatQty,
		})
	}
	if err := s.repo.ReplaceBasketItems(ctx, tableID, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist basket")
	}
	return next, nil
}

func (s *service) loadTable(ctx context.Context, id uuid.UUID) (*models.TerrainTable, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id is required")
	}
	record, err := s.repo.GetTable(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}
	return record, nil
}

func (s *service) footprints(ctx context.Context) (map[uuid.UUID]geometry.Footprint, error) {
	cat, err := s.catalog.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Footprints(), nil
}

func (s *service) logSkipped(ctx context.Context, tableID uuid.UUID, skipped []uuid.UUID) {
	if len(skipped) == 0 || s.logg == nil {
		return
	}
	ctx = s.logg.WithTableID(ctx, tableID.String())
	ctx = s.logg.WithField(ctx, "skipped_instance_ids", skipped)
	s.logg.Warn(ctx, "instances reference assets missing from catalog")
}

func (s *service) mapInstanceErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "instance not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load instance")
}

func resultLabel(result occupancy.Result) string {
	switch {
	case !result.InBounds:
		return metrics.PlacementOutOfBounds
	case result.Collides:
		return metrics.PlacementCollision
	default:
		return metrics.PlacementValid
	}
}
