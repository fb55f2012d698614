// Package web serves the console over local HTTP: the guarded admin paths,
// the credential dialog as JSON endpoints, health and metrics.
package web

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/tradeconsole/internal/console/flow"
	"github.com/dmitrijs2005/tradeconsole/internal/console/guard"
	"github.com/dmitrijs2005/tradeconsole/internal/console/metrics"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Session is what the web surface needs from the session manager.
type Session interface {
	Snapshot() models.Session
	Logout(ctx context.Context)
}

// RouterOptions controls router construction. Session and Flow are required.
type RouterOptions struct {
	Session     Session
	Flow        *flow.Controller
	Metrics     *metrics.Metrics
	Logger      logging.Logger
	CORSOptions *cors.Options
}

// DefaultCORSOptions allows a local front end dev server.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func NewRouter(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	h := &handlers{session: opts.Session, flow: opts.Flow, log: log.With("module", "web")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", opts.Metrics.Handler())

	r.Post(guard.LoginPath+"/{event}", h.loginEvent)
	r.Post("/admin/logout", h.logout)

	guarded := guard.Middleware(opts.Session, log, opts.Metrics)
	r.Group(func(r chi.Router) {
		r.Use(guarded)
		r.Get(guard.LoginPath, h.loginState)
		for _, p := range guard.ProtectedPatterns() {
			r.Handle(p, http.HandlerFunc(h.placeholder))
		}
	})

	// "/" and unknown paths go through the guard, which sends them to login.
	r.NotFound(guarded(http.NotFoundHandler()).ServeHTTP)

	return r
}
