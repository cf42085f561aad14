package http

import (
	"net/http"
	"time"

	"github.com/maratshchur/django-auth-template/pkg/authsdk"
	"github.com/maratshchur/django-auth-template/pkg/httpx"
)

// LivezHandler always answers 200 while the process is serving.
//
//	GET /livez
//	200 {status, uptime, version}
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
