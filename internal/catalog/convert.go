package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/terrainforge/backend/internal/geometry"
	"github.com/terrainforge/backend/pkg/db/models"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

func fromModel(record *models.Asset) Asset {
	var price *decimal.Decimal
	if record.BasePrice != nil {
		p := *record.BasePrice
		price = &p
	}
	return Asset{
		ID:              record.ID,
		Name:            record.Name,
		AABB:            geometry.AABB{X: record.AABBX, Y: record.AABBY, Z: record.AABBZ},
		Footprint:       geometry.Footprint{Cols: record.FootprintCols, Rows: record.FootprintRows},
		RotationStepDeg: record.RotationStepDeg,
		BasePrice:       price,
		Tags:            record.Tags,
	}
}

func toModel(asset Asset) *models.Asset {
	var price *decimal.Decimal
	if asset.BasePrice != nil {
		p := *asset.BasePrice
		price = &p
	}
	return &models.Asset{
		ID:              asset.ID,
		Name:            asset.Name,
		AABBX:           asset.AABB.X,
		AABBY:           asset.AABB.Y,
		AABBZ:           asset.AABB.Z,
		FootprintCols:   asset.Footprint.Cols,
		FootprintRows:   asset.Footprint.Rows,
		RotationStepDeg: asset.RotationStepDeg,
		BasePrice:       price,
		Tags:            asset.Tags,
		IsActive:        true,
	}
}

func assetFromInput(input CreateAssetInput) (Asset, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Asset{}, pkgerrors.New(pkgerrors.CodeValidation, "asset name is required")
	}

	aabb := geometry.AABB{X: input.AABB[0], Y: input.AABB[1], Z: input.AABB[2]}
	if !aabb.Positive() {
		return Asset{}, pkgerrors.New(pkgerrors.CodeValidation, "aabb extents must be positive")
	}

	fp := geometry.Footprint{Cols: input.FootprintCols, Rows: input.FootprintRows}
	if fp.Cols == 0 && fp.Rows == 0 {
		derived, err := geometry.DeriveFootprint(aabb, DefaultGridSize)
		if err != nil {
			return Asset{}, err
		}
		fp = derived
	}
	if fp.Cols < 1 || fp.Rows < 1 {
		return Asset{}, pkgerrors.New(pkgerrors.CodeValidation, "footprint must be at least 1x1")
	}

	step := input.RotationStepDeg
	if step == 0 {
		step = 90
	}
	if step < 1 || step > 360 {
		return Asset{}, pkgerrors.New(pkgerrors.CodeValidation, "rotation step must be within 1..360 degrees")
	}

	var price *decimal.Decimal
	if input.BasePrice != nil {
		parsed, err := decimal.NewFromString(strings.TrimSpace(*input.BasePrice))
		if err != nil {
			return Asset{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base price")
		}
		if parsed.Sign() <= 0 {
			return Asset{}, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
		}
		price = &parsed
	}

	return Asset{
		Name:            input.Name,
		AABB:            aabb,
		Footprint:       fp,
		RotationStepDeg: step,
		BasePrice:       price,
		Tags:            input.Tags,
	}, nil
}
