package guard

import (
	"net/http"

	"github.com/dmitrijs2005/tradeconsole/internal/console/metrics"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
)

// SessionSource supplies the session snapshot a request is judged by.
type SessionSource interface {
	Snapshot() models.Session
}

const loadingPage = `<!doctype html><html><head><meta charset="utf-8"><title>Loading</title></head><body><p>Loading...</p></body></html>`

// Middleware applies Decide to every request. Loading answers 200 with a
// placeholder page that refreshes itself; Redirect answers 302.
func Middleware(src SessionSource, log logging.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(src.Snapshot(), r.URL.Path)
			m.ObserveGuard(d.Kind.String())

			switch d.Kind {
			case Loading:
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("Cache-Control", "no-store")
				w.Header().Set("Refresh", "1")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(loadingPage))
			case Redirect:
				log.Debug(r.Context(), "guard redirect", "path", r.URL.Path, "location", d.Location)
				http.Redirect(w, r, d.Location, http.StatusFound)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
