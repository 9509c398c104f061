package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storelinkhq/storelink-backend/api/middleware"
	"github.com/storelinkhq/storelink-backend/api/responses"
	"github.com/storelinkhq/storelink-backend/api/validators"
	"github.com/storelinkhq/storelink-backend/internal/stores"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
)

type storeCreateRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=120"`
	Description    *string `json:"description,omitempty"`
	Category       *string `json:"category,omitempty"`
	ThemeColor     *string `json:"theme_color,omitempty"`
	WhatsAppNumber *string `json:"whatsapp_number,omitempty"`
}

func (r storeCreateRequest) toInput() stores.CreateStoreInput {
	return stores.CreateStoreInput{
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		ThemeColor:     r.ThemeColor,
		WhatsAppNumber: r.WhatsAppNumber,
	}
}

type storeUpdateRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description    *string `json:"description,omitempty"`
	Category       *string `json:"category,omitempty"`
	ThemeColor     *string `json:"theme_color,omitempty"`
	LogoURL        *string `json:"logo_url,omitempty"`
	BannerURL      *string `json:"banner_url,omitempty"`
	WhatsAppNumber *string `json:"whatsapp_number,omitempty"`
	IsPublished    *bool   `json:"is_published,omitempty"`
}

func (r storeUpdateRequest) toInput() stores.UpdateStoreInput {
	return stores.UpdateStoreInput{
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		ThemeColor:     r.ThemeColor,
		LogoURL:        r.LogoURL,
		BannerURL:      r.BannerURL,
		WhatsAppNumber: r.WhatsAppNumber,
		IsPublished:    r.IsPublished,
	}
}

// StoreCreate opens a new store for the authenticated owner.
func StoreCreate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		ownerID, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload storeCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Create(r.Context(), ownerID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, store)
	}
}

// StoreList returns every store the authenticated owner runs.
func StoreList(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		ownerID, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListMine(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// StoreGet returns a single owned store.
func StoreGet(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
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

		store, err := svc.GetByID(r.Context(), ownerID, storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// StoreUpdate adjusts the allowed mutable fields for an owned store.
func StoreUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
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

		var payload storeUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Update(r.Context(), ownerID, storeID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

func ownerFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.OwnerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid owner id")
	}
	return id, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}
