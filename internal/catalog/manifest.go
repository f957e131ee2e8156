package catalog

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terrainforge/backend/internal/geometry"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

// DefaultGridSize is the cell pitch used to derive a footprint when the
// manifest omits one.
const DefaultGridSize = 0.3

var manifestValidate = validator.New()

// Manifest is the catalog fetch payload loaded once per session.
type Manifest struct {
	Assets []ManifestAsset `json:"assets" validate:"required,dive"`
}

// ManifestAsset mirrors one catalog record as shipped by the asset pipeline.
type ManifestAsset struct {
	ID              string             `json:"id" validate:"required,uuid"`
	Name            string             `json:"name" validate:"required"`
	AABB            manifestAABB       `json:"aabb" validate:"required"`
	Footprint       *manifestFootprint `json:"footprint,omitempty"`
	RotationStepDeg int                `json:"rotation_step_deg" validate:"omitempty,min=1,max=360"`
	Price           *decimal.Decimal   `json:"price,omitempty"`
	Tags            []string           `json:"tags,omitempty"`
}

type manifestAABB struct {
	X float64 `json:"x" validate:"required,gt=0"`
	Y float64 `json:"y" validate:"required,gt=0"`
	Z float64 `json:"z" validate:"required,gt=0"`
}

type manifestFootprint struct {
	Cols int `json:"cols" validate:"required,min=1"`
	Rows int `json:"rows" validate:"required,min=1"`
}

// LoadManifest reads and validates a manifest file, returning domain assets.
// A missing footprint is derived from the AABB at the default grid size.
func LoadManifest(path string) ([]Asset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read catalog manifest")
	}
	return ParseManifest(raw)
}

// ParseManifest decodes and validates raw manifest JSON.
func ParseManifest(raw []byte) ([]Asset, error) {
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid catalog manifest")
	}
	if err := manifestValidate.Struct(manifest); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "catalog manifest failed validation")
	}

	assets := make([]Asset, 0, len(manifest.Assets))
	for _, entry := range manifest.Assets {
		asset, err := entry.toAsset()
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (m ManifestAsset) toAsset() (Asset, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return Asset{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset id")
	}

	aabb := geometry.AABB{X: m.AABB.X, Y: m.AABB.Y, Z: m.AABB.Z}

	var fp geometry.Footprint
	if m.Footprint != nil {
		fp = geometry.Footprint{Cols: m.Footprint.Cols, Rows: m.Footprint.Rows}
	} else {
		fp, err = geometry.DeriveFootprint(aabb, DefaultGridSize)
		if err != nil {
			return Asset{}, err
		}
	}

	step := m.RotationStepDeg
	if step == 0 {
		step = 90
	}

	if m.Price != nil && m.Price.Sign() <= 0 {
		return Asset{}, pkgerrors.New(pkgerrors.CodeValidation, "asset price must be positive").
			WithDetails(map[string]any{"asset_id": m.ID})
	}

	return Asset{
		ID:              id,
		Name:            m.Name,
		AABB:            aabb,
		Footprint:       fp,
		RotationStepDeg: step,
		BasePrice:       m.Price,
		Tags:            m.Tags,
	}, nil
}
