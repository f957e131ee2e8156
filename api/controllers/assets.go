package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terrainforge/backend/api/responses"
	"github.com/terrainforge/backend/api/validators"
	catalogsvc "github.com/terrainforge/backend/internal/catalog"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
	"github.com/terrainforge/backend/pkg/logger"
)

// AssetList returns the active catalog in load order.
func AssetList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		assets, err := svc.ListAssets(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assets)
	}
}

// AssetDetail returns one catalog asset.
func AssetDetail(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		assetID, err := validators.ParsePathUUID(chi.URLParam(r, "assetId"), "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.GetAsset(r.Context(), assetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, asset)
	}
}

type createAssetRequest struct {
	Name string `json:"name" validate:"required"`
	AABB struct {
		X float64 `json:"x" validate:"required,gt=0"`
		Y float64 `json:"y" validate:"required,gt=0"`
		Z float64 `json:"z" validate:"required,gt=0"`
	} `json:"aabb" validate:"required"`
	Footprint *struct {
		Cols int `json:"cols" validate:"required,min=1"`
		Rows int `json:"rows" validate:"required,min=1"`
	} `json:"footprint,omitempty"`
	RotationStepDeg int      `json:"rotation_step_deg,omitempty" validate:"omitempty,min=1,max=360"`
	Price           *string  `json:"price,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

func (req createAssetRequest) toInput() catalogsvc.CreateAssetInput {
	input := catalogsvc.CreateAssetInput{
		Name:            req.Name,
		AABB:            [3]float64{req.AABB.X, req.AABB.Y, req.AABB.Z},
		RotationStepDeg: req.RotationStepDeg,
		BasePrice:       req.Price,
		Tags:            req.Tags,
	}
	if req.Footprint != nil {
		input.FootprintCols = req.Footprint.Cols
		input.FootprintRows = req.Footprint.Rows
	}
	return input
}

// AssetCreate adds a catalog entry. The footprint is derived from the AABB
// when not supplied.
func AssetCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createAssetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.CreateAsset(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, asset)
	}
}
