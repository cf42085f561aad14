package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maratshchur/django-auth-template/internal/auth/service"
	"github.com/maratshchur/django-auth-template/internal/auth/store"
	"github.com/maratshchur/django-auth-template/pkg/httpx"
	"github.com/maratshchur/django-auth-template/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	registry     *prometheus.Registry

	store              store.Store
	CredentialService  *service.CredentialService
	SessionService     *service.SessionService
	UserService        *service.UserService
	TokenVerifier      *service.TokenVerifier
	RefreshStorePinger Pinger // Optional: set when refresh tokens live outside the database
}

// NewRouter builds a router. When reg is not nil, request metrics are
// recorded on it and exposed at /metrics.
func NewRouter(buildVersion string, st store.Store, logger *slog.Logger, reg *prometheus.Registry) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		registry:     reg,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	if reg != nil {
		r.middlewares = append(r.middlewares, httpx.NewHTTPMetrics(reg).Middleware())
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccount()
	r.registerMe()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccount() {
	r.Mux.Handle("POST /register", &RegisterHandler{Credentials: r.CredentialService})
	r.Mux.Handle("POST /login", &LoginHandler{Sessions: r.SessionService})
	r.Mux.Handle("POST /refresh", &RefreshHandler{Sessions: r.SessionService})
	r.Mux.Handle("POST /logout", &LogoutHandler{Sessions: r.SessionService})
}

func (r *Router) registerMe() {
	h := &MeHandler{Users: r.UserService}
	authn := httpx.AuthnMiddleware(r.TokenVerifier, writeAuthError)

	r.Mux.Handle("GET /me", httpx.Chain(http.HandlerFunc(h.HandleGet), authn))
	r.Mux.Handle("PUT /me", httpx.Chain(http.HandlerFunc(h.HandlePut), authn))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.RefreshStorePinger))

	if r.registry != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry}))
	}
}
