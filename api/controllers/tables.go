package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terrainforge/backend/api/responses"
	"github.com/terrainforge/backend/api/validators"
	tablesvc "github.com/terrainforge/backend/internal/tables"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
	"github.com/terrainforge/backend/pkg/logger"
)

type createTableRequest struct {
	Name     string  `json:"name" validate:"required"`
	Width    float64 `json:"width" validate:"required,gt=0"`
	Height   float64 `json:"height" validate:"required,gt=0"`
	GridSize float64 `json:"grid_size,omitempty" validate:"omitempty,gt=0"`
	Unit     string  `json:"unit,omitempty"`
}

// TableCreate builds a new table. Dimensions arrive in the request's unit
// and are stored in metres.
func TableCreate(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tables service unavailable"))
			return
		}

		var payload createTableRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		table, err := svc.CreateTable(r.Context(), tablesvc.CreateTableInput{
			Name:     payload.Name,
			Width:    payload.Width,
			Height:   payload.Height,
			GridSize: payload.GridSize,
			Unit:     payload.Unit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, table)
	}
}

// TableList returns every table without instances.
func TableList(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tables service unavailable"))
			return
		}

		tables, err := svc.ListTables(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tables)
	}
}

// TableDetail returns one table with its placed instances.
func TableDetail(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		table, err := svc.GetTable(r.Context(), tableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, table)
	}
}

type updateTableRequest struct {
	Name     *string  `json:"name,omitempty"`
	Unit     *string  `json:"unit,omitempty"`
	Width    *float64 `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height   *float64 `json:"height,omitempty" validate:"omitempty,gt=0"`
	GridSize *float64 `json:"grid_size,omitempty" validate:"omitempty,gt=0"`
}

// TableUpdate applies partial table changes. Resizes that would strand a
// placed instance are rejected.
func TableUpdate(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload updateTableRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		table, err := svc.UpdateTable(r.Context(), tableID, tablesvc.UpdateTableInput{
			Name:     payload.Name,
			Unit:     payload.Unit,
			Width:    payload.Width,
			Height:   payload.Height,
			GridSize: payload.GridSize,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, table)
	}
}

// TableDelete removes a table with its instances and basket.
func TableDelete(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.DeleteTable(r.Context(), tableID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// TableClear removes every placed instance and empties the basket.
func TableClear(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.ClearTable(r.Context(), tableID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
