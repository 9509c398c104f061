package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/storelinkhq/storelink-backend/api/responses"
	"github.com/storelinkhq/storelink-backend/pkg/config"
	"github.com/storelinkhq/storelink-backend/pkg/db"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
	pkgredis "github.com/storelinkhq/storelink-backend/pkg/redis"
)

const envHeader = "X-StoreLink-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks, "checked_at": time.Now().UTC()})
	}
}
