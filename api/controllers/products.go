package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/storelinkhq/storelink-backend/api/responses"
	"github.com/storelinkhq/storelink-backend/api/validators"
	product "github.com/storelinkhq/storelink-backend/internal/products"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
)

type productCreateRequest struct {
	Name          string           `json:"name" validate:"required,min=1,max=200"`
	Description   *string          `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	ImageURLs     []string         `json:"image_urls,omitempty"`
	Stock         int              `json:"stock" validate:"min=0"`
	LowStockLevel *int             `json:"low_stock_level,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

func (r productCreateRequest) toInput() product.CreateProductInput {
	return product.CreateProductInput{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		CostPrice:     r.CostPrice,
		ImageURL:      r.ImageURL,
		ImageURLs:     r.ImageURLs,
		Stock:         r.Stock,
		LowStockLevel: r.LowStockLevel,
		IsActive:      r.IsActive,
	}
}

type productUpdateRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	ImageURLs     *[]string        `json:"image_urls,omitempty"`
	Stock         *int             `json:"stock,omitempty"`
	LowStockLevel *int             `json:"low_stock_level,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

func (r productUpdateRequest) toInput() product.UpdateProductInput {
	return product.UpdateProductInput{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		CostPrice:     r.CostPrice,
		ImageURL:      r.ImageURL,
		ImageURLs:     r.ImageURLs,
		Stock:         r.Stock,
		LowStockLevel: r.LowStockLevel,
		IsActive:      r.IsActive,
	}
}

// ProductCreate adds a product to an owned store's catalog.
func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := pathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), ownerID, storeID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ProductList returns the full catalog of an owned store, inactive
// rows included.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := pathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByStore(r.Context(), ownerID, storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// ProductGet returns one owned product.
func ProductGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), ownerID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ProductUpdate applies a partial update to an owned product.
func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), ownerID, productID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ProductDelete removes an owned product from the catalog.
func ProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ownerID, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), ownerID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
