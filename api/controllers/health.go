package controllers

import (
	"net/http"

	"github.com/tundeadepitan/swiftchow-backend/api/responses"
	"github.com/tundeadepitan/swiftchow-backend/pkg/config"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SwiftChow-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SwiftChow-Env", cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
