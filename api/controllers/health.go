package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Fares-ag/blox-backend/api/responses"
	"github.com/Fares-ag/blox-backend/pkg/config"
	pkgerrors "github.com/Fares-ag/blox-backend/pkg/errors"
	"github.com/Fares-ag/blox-backend/pkg/logger"
)

const readyProbeTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Blox-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Blox-Env", cfg.App.Env)

		probes := map[string]pinger{
			"database": db,
			"redis":    cache,
		}
		for name, probe := range probes {
			if probe == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
			err := probe.Ping(ctx)
			cancel()
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
