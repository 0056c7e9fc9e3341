package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/concert/auth/internal/auth/service"
	"github.com/concert/auth/internal/auth/store"
	"github.com/concert/auth/pkg/authsdk"
	"github.com/concert/auth/pkg/httpx"
	"github.com/concert/auth/pkg/jwtx"
	"github.com/concert/auth/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/concert/auth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	secrets      jwtx.SecretProvider
	registry     *prometheus.Registry
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	AuthService *service.AuthService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	secrets jwtx.SecretProvider,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		secrets:      secrets,
		registry:     registry,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Metrics sits inside the logging middleware so it reads the route pattern
	// from the request the mux actually served.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		MetricsMiddleware(r.registry),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpx.Chain(httpSwagger.Handler(),
		httpx.RateLimitByIP(httpx.PublicLimit),
	))

	// Unknown routes and method mismatches on known paths
	r.Mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		authsdk.ErrRouteNotFound.WriteError(w)
	})
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Concert Authentication Service API
//	@version		0.1.0
//	@description	Registration, login and token lifecycle for the concert ticketing platform.
//	@description
//	@description				Access and refresh tokens are HS256 JWTs. Refresh tokens are backed by a session record and revoked on logout.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /register and /login - strict rate limit by IP + email to slow
	// down credential stuffing
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(&RegisterHandler{AuthService: r.AuthService},
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(&LoginHandler{AuthService: r.AuthService},
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	// POST /refresh and /logout - moderate rate limit
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(&RefreshHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(&LogoutHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /verify - lenient, called by other services on every request
	r.Mux.Handle("GET /api/auth/verify",
		httpx.Chain(&VerifyHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.secrets),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /metrics",
		httpx.Chain(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
