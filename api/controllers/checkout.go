package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storelinkhq/storelink-backend/api/responses"
	"github.com/storelinkhq/storelink-backend/api/validators"
	"github.com/storelinkhq/storelink-backend/internal/checkout"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
)

// CheckoutSubmit accepts a public checkout submission for the store
// named in the URL. The Idempotency-Key header wins over any key in
// the body.
func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "storeSlug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "store slug is required"))
			return
		}

		var payload checkout.SubmitInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if header := strings.TrimSpace(r.Header.Get("Idempotency-Key")); header != "" {
			payload.IdempotencyKey = header
		}

		result, err := svc.Submit(r.Context(), slug, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
