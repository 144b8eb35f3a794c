package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/aqar/pkg/aqarsdk"
	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

// Pinger is anything readiness depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Always 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	aqarsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, aqarsdk.HealthResponse{
			Status:  checkOK,
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the database and, when configured, the OAuth session store.
//	@Description	The custom role table lives in the database, so a failing database also means custom roles are denied.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	aqarsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	aqarsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, db Pinger, sessions Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := &aqarsdk.HealthChecks{}
		var g errgroup.Group
		g.Go(func() error {
			checks.Database = probe(ctx, "database", db)
			return nil
		})
		if sessions != nil {
			g.Go(func() error {
				checks.Sessions = probe(ctx, "sessions", sessions)
				return nil
			})
		}
		_ = g.Wait()

		res := aqarsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		status := http.StatusOK
		if checks.Database != checkOK || (sessions != nil && checks.Sessions != checkOK) {
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, status, res)
	}
}

const (
	readyTimeout     = 2 * time.Second
	checkOK          = "ok"
	checkUnavailable = "unavailable"
)

// probe hides the cause from the probe response; it is logged instead.
func probe(ctx context.Context, name string, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		slogx.FromContext(ctx).Error("readiness check failed", "check", name, "err", err)
		return checkUnavailable
	}
	return checkOK
}
