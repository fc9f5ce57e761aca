// Package http assembles the route tree: platform middleware, the public
// intake surface, the rate-limited admin login, and the guarded review routes.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"applygate/internal/adminauth"
	"applygate/internal/applicant/handler"
	"applygate/internal/ratelimit"
	adminmw "applygate/pkg/platform/middleware/admin"
	"applygate/pkg/platform/middleware/request"
	"applygate/pkg/requestcontext"
)

const (
	loginLimit  = 5
	loginWindow = time.Minute
)

type Deps struct {
	Logger         *slog.Logger
	Applicants     *handler.Handler
	AdminLogin     *adminauth.Handler
	Tokens         adminmw.TokenValidator
	LoginLimiter   ratelimit.Limiter
	Health         http.HandlerFunc
	RequestTimeout time.Duration
}

// New builds the full router.
func New(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(request.Recovery(deps.Logger))
	r.Use(request.Logger(deps.Logger))
	if deps.RequestTimeout > 0 {
		r.Use(request.Timeout(deps.RequestTimeout))
	}

	r.Get("/health", deps.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		deps.Applicants.RegisterPublic(api)

		api.Group(func(login chi.Router) {
			login.Use(ratelimit.Middleware(deps.LoginLimiter, clientKey, loginLimit, loginWindow))
			deps.AdminLogin.Register(login)
		})

		api.Group(func(admin chi.Router) {
			admin.Use(adminmw.RequireAdmin(deps.Tokens, deps.Logger))
			deps.Applicants.RegisterAdmin(admin)
		})
	})

	return r
}

func clientKey(r *http.Request) string {
	return requestcontext.ClientIP(r.Context())
}
