package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/terrainforge/backend/pkg/errors"
	"github.com/terrainforge/backend/pkg/logger"
	"github.com/terrainforge/backend/pkg/redis"
)

const cacheKeySuffix = "assets"

// Service exposes catalog reads and writes plus the session snapshot load.
type Service interface {
	LoadCatalog(ctx context.Context) (*Catalog, error)
	GetAsset(ctx context.Context, id uuid.UUID) (Asset, error)
	ListAssets(ctx context.Context) ([]Asset, error)
	CreateAsset(ctx context.Context, input CreateAssetInput) (Asset, error)
	SeedFromManifest(ctx context.Context, path string) (int, error)
}

type service struct {
	repo     AssetRepository
	cache    redis.Cache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService builds the catalog service. The cache is optional; when nil,
// every load goes to the database.
func NewService(repo AssetRepository, cache redis.Cache, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("asset repository required")
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &service{repo: repo, cache: cache, cacheTTL: cacheTTL, logg: logg}, nil
}

// LoadCatalog returns the session snapshot, preferring the redis-cached
// manifest over a database scan.
func (s *service) LoadCatalog(ctx context.Context) (*Catalog, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, s.cache.CatalogKey(cacheKeySuffix)); err == nil {
			var assets []Asset
			if err := json.Unmarshal([]byte(cached), &assets); err == nil {
				return NewCatalog(assets), nil
			}
			if s.logg != nil {
				s.logg.Warn(ctx, "catalog cache entry corrupt, falling back to db")
			}
		} else if !errors.Is(err, redis.ErrMiss) && s.logg != nil {
			s.logg.Warn(ctx, "catalog cache read failed, falling back to db")
		}
	}

	assets, err := s.ListAssets(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(assets); err == nil {
			if err := s.cache.Set(ctx, s.cache.CatalogKey(cacheKeySuffix), payload, s.cacheTTL); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "catalog cache write failed")
			}
		}
	}

	return NewCatalog(assets), nil
}

// GetAsset loads one asset by id.
func (s *service) GetAsset(ctx context.Context, id uuid.UUID) (Asset, error) {
	if id == uuid.Nil {
		return Asset{}, pkgerrors.New(pkgerrors.CodeValidation, "asset id is required")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Asset{}, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		return Asset{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}
	return fromModel(record), nil
}

// ListAssets returns all active assets.
func (s *service) ListAssets(ctx context.Context) ([]Asset, error) {
	records, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assets")
	}
	assets := make([]Asset, 0, len(records))
	for i := range records {
		assets = append(assets, fromModel(&records[i]))
	}
	return assets, nil
}

// CreateAssetInput is the validated payload for a new catalog entry.
type CreateAssetInput struct {
	Name            string
	AABB            [3]float64
	FootprintCols   int
	FootprintRows   int
	RotationStepDeg int
	BasePrice       *string
	Tags            []string
}

// CreateAsset validates and persists a new asset, then invalidates the
// cached manifest.
func (s *service) CreateAsset(ctx context.Context, input CreateAssetInput) (Asset, error) {
	asset, err := assetFromInput(input)
	if err != nil {
		return Asset{}, err
	}

	record := toModel(asset)
	if _, err := s.repo.Create(ctx, record); err != nil {
		return Asset{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist asset")
	}

	s.invalidate(ctx)
	return fromModel(record), nil
}

// SeedFromManifest upserts every manifest entry and returns the count.
func (s *service) SeedFromManifest(ctx context.Context, path string) (int, error) {
	assets, err := LoadManifest(path)
	if err != nil {
		return 0, err
	}
	for _, asset := range assets {
		record := toModel(asset)
		if _, err := s.repo.Upsert(ctx, record); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed asset").
				WithDetails(map[string]any{"asset_id": asset.ID})
		}
	}
	s.invalidate(ctx)
	return len(assets), nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.CatalogKey(cacheKeySuffix)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "catalog cache invalidation failed")
	}
}
