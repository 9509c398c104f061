package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/storelinkhq/storelink-backend/api/responses"
	"github.com/storelinkhq/storelink-backend/api/validators"
	pkgauth "github.com/storelinkhq/storelink-backend/pkg/auth"
	"github.com/storelinkhq/storelink-backend/pkg/config"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
)

type devTokenRequest struct {
	OwnerID uuid.UUID `json:"owner_id" validate:"required"`
	Email   string    `json:"email,omitempty" validate:"omitempty,email"`
}

// DevMintToken issues a dashboard JWT for a given owner id. The route
// is only mounted outside production; identity lives in a separate
// service there.
func DevMintToken(cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload devTokenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
			OwnerID: payload.OwnerID,
			Email:   payload.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"access_token": token})
	}
}
