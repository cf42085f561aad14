package http

import (
	"context"
	"net/http"
	"time"

	"github.com/maratshchur/django-auth-template/pkg/authsdk"
	"github.com/maratshchur/django-auth-template/pkg/httpx"
	"github.com/maratshchur/django-auth-template/pkg/slogx"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyzHandler checks the database and, when refresh tokens live
// elsewhere, the refresh store. refresh may be nil.
//
//	GET /readyz
//	200 {status, uptime, version, checks}, 503 when a check fails
func ReadyzHandler(startTime time.Time, version string, db, refresh Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		logger := slogx.FromContext(r.Context())

		// Check database connectivity
		if err := db.Ping(r.Context()); err != nil {
			logger.Error("readiness check failed", "check", "database", "error", err)
			checks.Database = "error"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if refresh != nil {
			checks.RefreshStore = "ok"
			if err := refresh.Ping(r.Context()); err != nil {
				logger.Error("readiness check failed", "check", "refresh_store", "error", err)
				checks.RefreshStore = "error"
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
