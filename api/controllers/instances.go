package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/terrainforge/backend/api/responses"
	"github.com/terrainforge/backend/api/validators"
	"github.com/terrainforge/backend/internal/occupancy"
	tablesvc "github.com/terrainforge/backend/internal/tables"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
	"github.com/terrainforge/backend/pkg/logger"
)

type placeInstanceRequest struct {
	AssetID     uuid.UUID `json:"asset_id" validate:"required"`
	X           float64   `json:"x"`
	Z           float64   `json:"z"`
	RotationDeg float64   `json:"rotation_deg"`
	TiltXDeg    float64   `json:"tilt_x_deg"`
	TiltZDeg    float64   `json:"tilt_z_deg"`
}

type placementResponse struct {
	Instance tablesvc.Instance `json:"instance"`
	Result   occupancy.Result  `json:"result"`
}

// InstancePlace commits a new placement. An invalid spot comes back as a
// state conflict carrying the bounds/collision breakdown.
func InstancePlace(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tables service unavailable"))
			return
		}

		tableID, err := validators.ParsePathUUID(chi.URLParam(r, "tableId"), "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeInstanceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inst, result, err := svc.PlaceInstance(r.Context(), tableID, tablesvc.PlaceInstanceInput{
			AssetID:     payload.AssetID,
			X:           payload.X,
			Z:           payload.Z,
			RotationDeg: payload.RotationDeg,
			TiltXDeg:    payload.TiltXDeg,
			TiltZDeg:    payload.TiltZDeg,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, placementResponse{Instance: inst, Result: result})
	}
}

type moveInstanceRequest struct {
	X           *float64 `json:"x,omitempty"`
	Z           *float64 `json:"z,omitempty"`
	RotationDeg *float64 `json:"rotation_deg,omitempty"`
	TiltXDeg    *float64 `json:"tilt_x_deg,omitempty"`
	TiltZDeg    *float64 `json:"tilt_z_deg,omitempty"`
}

// InstanceMove manipulates a placed instance. An invalid target pose is not
// an error: the instance reverts and the result reports why.
func InstanceMove(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tables service unavailable"))
			return
		}

		tableID, err := validators.ParsePathUUID(chi.URLParam(r, "tableId"), "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		instanceID, err := validators.ParsePathUUID(chi.URLParam(r, "instanceId"), "instanceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload moveInstanceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inst, result, err := svc.MoveInstance(r.Context(), tableID, instanceID, tablesvc.MoveInstanceInput{
			X:           payload.X,
			Z:           payload.Z,
			RotationDeg: payload.RotationDeg,
			TiltXDeg:    payload.TiltXDeg,
			TiltZDeg:    payload.TiltZDeg,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, placementResponse{Instance: inst, Result: result})
	}
}

// InstanceRemove deletes a placed instance and resyncs the basket.
func InstanceRemove(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tables service unavailable"))
			return
		}

		tableID, err := validators.ParsePathUUID(chi.URLParam(r, "tableId"), "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		instanceID, err := validators.ParsePathUUID(chi.URLParam(r, "instanceId"), "instanceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveInstance(r.Context(), tableID, instanceID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

type placementCheckRequest struct {
	AssetID           uuid.UUID  `json:"asset_id" validate:"required"`
	X                 float64    `json:"x"`
	Z                 float64    `json:"z"`
	RotationDeg       float64    `json:"rotation_deg"`
	ExcludeInstanceID *uuid.UUID `json:"exclude_instance_id,omitempty"`
}

// PlacementCheck runs the dry-run validation behind the editor's ghost
// highlight. Nothing is persisted.
func PlacementCheck(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tables service unavailable"))
			return
		}

		tableID, err := validators.ParsePathUUID(chi.URLParam(r, "tableId"), "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placementCheckRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.CheckPlacement(r.Context(), tableID, tablesvc.PlacementQuery{
			AssetID:           payload.AssetID,
			X:                 payload.X,
			Z:                 payload.Z,
			RotationDeg:       payload.RotationDeg,
			ExcludeInstanceID: payload.ExcludeInstanceID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
