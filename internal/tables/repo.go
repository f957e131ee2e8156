package tables

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/terrainforge/backend/pkg/db/models"
)

// TableRepository defines persistence for tables, placed instances and
// basket rows.
type TableRepository interface {
	CreateTable(ctx context.Context, table *models.TerrainTable) (*models.TerrainTable, error)
	GetTable(ctx context.Context, id uuid.UUID) (*models.TerrainTable, error)
	ListTables(ctx context.Context) ([]models.TerrainTable, error)
	UpdateTable(ctx context.Context, table *models.TerrainTable) error
	DeleteTable(ctx context.Context, id uuid.UUID) error

	CreateInstance(ctx context.Context, inst *models.TableInstance) (*models.TableInstance, error)
	GetInstance(ctx context.Context, id uuid.UUID) (*models.TableInstance, error)
	UpdateInstance(ctx context.Context, inst *models.TableInstance) error
	DeleteInstance(ctx context.Context, id uuid.UUID) error
	DeleteInstancesByTable(ctx context.Context, tableID uuid.UUID) error

	ListBasketItems(ctx context.Context, tableID uuid.UUID) ([]models.BasketItem, error)
	ReplaceBasketItems(ctx context.Context, tableID uuid.UUID, items []models.BasketItem) error
}

// Repository is the GORM-backed store.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateTable inserts a new table, assigning an id when absent.
func (r *Repository) CreateTable(ctx context.Context, table *models.TerrainTable) (*models.TerrainTable, error) {
	if table.ID == uuid.Nil {
		table.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(table).Error; err != nil {
		return nil, err
	}
	return table, nil
}

// GetTable loads one table with its placed instances.
func (r *Repository) GetTable(ctx context.Context, id uuid.UUID) (*models.TerrainTable, error) {
	var table models.TerrainTable
	err := r.db.WithContext(ctx).
		Preload("Instances", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&table, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// ListTables returns every table without instances, newest first.
func (r *Repository) ListTables(ctx context.Context) ([]models.TerrainTable, error) {
	var tables []models.TerrainTable
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&tables).Error
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// UpdateTable persists table-level fields.
func (r *Repository) UpdateTable(ctx context.Context, table *models.TerrainTable) error {
	return r.db.WithContext(ctx).
		Model(&models.TerrainTable{}).
		Where("id = ?", table.ID).
		Updates(map[string]any{
			"name":         table.Name,
			"width_m":      table.WidthM,
			"height_m":     table.HeightM,
			"grid_size_m":  table.GridSizeM,
			"unit_display": table.UnitDisplay,
		}).Error
}

// DeleteTable removes a table; instances and basket rows cascade.
func (r *Repository) DeleteTable(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("table_id = ?", id).Delete(&models.TableInstance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("table_id = ?", id).Delete(&models.BasketItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.TerrainTable{}, "id = ?", id).Error
	})
}

// CreateInstance inserts a placed instance, assigning an id when absent.
func (r *Repository) CreateInstance(ctx context.Context, inst *models.TableInstance) (*models.TableInstance, error) {
	if inst.ID == uuid.Nil {
		inst.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(inst).Error; err != nil {
		return nil, err
	}
	return inst, nil
}

// GetInstance loads one placed instance.
func (r *Repository) GetInstance(ctx context.Context, id uuid.UUID) (*models.TableInstance, error) {
	var inst models.TableInstance
	if err := r.db.WithContext(ctx).First(&inst, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

// UpdateInstance persists position, rotation and tilt.
func (r *Repository) UpdateInstance(ctx context.Context, inst *models.TableInstance) error {
	return r.db.WithContext(ctx).
		Model(&models.TableInstance{}).
		Where("id = ?", inst.ID).
		Updates(map[string]any{
			"pos_x":        inst.PosX,
			"pos_z":        inst.PosZ,
			"rotation_deg": inst.RotationDeg,
			"tilt_x_deg":   inst.TiltXDeg,
			"tilt_z_deg":   inst.TiltZDeg,
		}).Error
}

// DeleteInstance removes one placed instance.
func (r *Repository) DeleteInstance(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.TableInstance{}, "id = ?", id).Error
}

// DeleteInstancesByTable clears every instance on a table.
func (r *Repository) DeleteInstancesByTable(ctx context.Context, tableID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Delete(&models.TableInstance{}).Error
}

// ListBasketItems returns a table's basket rows in insertion order.
func (r *Repository) ListBasketItems(ctx context.Context, tableID uuid.UUID) ([]models.BasketItem, error) {
	var items []models.BasketItem
	err := r.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceBasketItems swaps a table's basket rows atomically, the write half
// of a reconcile.
func (r *Repository) ReplaceBasketItems(ctx context.Context, tableID uuid.UUID, items []models.BasketItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("table_id = ?", tableID).Delete(&models.BasketItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == uuid.Nil {
				items[i].ID = uuid.New()
			}
			items[i].TableID = tableID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
