package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/terrainforge/backend/pkg/db/models"
)

// AssetRepository defines persistence operations for catalog assets.
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	Upsert(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	ListActive(ctx context.Context) ([]models.Asset, error)
}

// Repository is the GORM-backed asset store.
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

// Create inserts a new asset, assigning an id when absent.
func (r *Repository) Create(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

// Upsert inserts or refreshes an asset by id, used by manifest seeding.
func (r *Repository) Upsert(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "aabb_x", "aabb_y", "aabb_z",
				"footprint_cols", "footprint_rows", "rotation_step_deg",
				"base_price", "tags", "is_active", "updated_at",
			}),
		}).
		Create(asset).Error
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// GetByID loads one asset.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// ListActive returns the active catalog in insertion order.
func (r *Repository) ListActive(ctx context.Context) ([]models.Asset, error) {
	var assets []models.Asset
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}
