package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terrainforge/backend/api/responses"
	"github.com/terrainforge/backend/api/validators"
	catalogsvc "github.com/terrainforge/backend/internal/catalog"
	"github.com/terrainforge/backend/internal/pricing"
	tablesvc "github.com/terrainforge/backend/internal/tables"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
	"github.com/terrainforge/backend/pkg/logger"
	"github.com/terrainforge/backend/pkg/metrics"
)

// BasketFetch returns a table's basket lines without pricing them.
func BasketFetch(svc tablesvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		items, err := svc.BasketItems(r.Context(), tableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AssetQuote prices a single catalog asset at both purchase tiers.
func AssetQuote(catSvc catalogsvc.Service, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catSvc == nil || engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing unavailable"))
			return
		}

		assetID, err := validators.ParsePathUUID(chi.URLParam(r, "assetId"), "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := catSvc.GetAsset(r.Context(), assetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		priced, err := engine.CalculatePricing(asset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, priced)
	}
}

// BasketQuote prices the whole basket against the current catalog snapshot.
// Lines referencing vanished assets are skipped and surfaced in the payload.
func BasketQuote(
	svc tablesvc.Service,
	catSvc catalogsvc.Service,
	engine *pricing.Engine,
	m *metrics.EditorMetrics,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || catSvc == nil || engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing unavailable"))
			return
		}

		tableID, err := validators.ParsePathUUID(chi.URLParam(r, "tableId"), "tableId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.BasketItems(r.Context(), tableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cat, err := catSvc.LoadCatalog(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now()
		quote, err := engine.CalculateBasketTotal(items, cat)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m.IncQuote()
		m.ObserveQuoteDuration(time.Since(start))

		if len(quote.SkippedAssetIDs) > 0 && logg != nil {
			ctx := logg.WithTableID(r.Context(), tableID.String())
			ctx = logg.WithField(ctx, "skipped_asset_ids", quote.SkippedAssetIDs)
			logg.Warn(ctx, "basket lines reference assets missing from catalog")
		}

		responses.WriteSuccess(w, quote)
	}
}
