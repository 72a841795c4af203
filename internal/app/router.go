package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	balancehttp "github.com/kampfth/partner-center/internal/balance/http"
	"github.com/kampfth/partner-center/internal/importer"
	"github.com/kampfth/partner-center/internal/observability"
	"github.com/kampfth/partner-center/jobs"
	"github.com/kampfth/partner-center/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	BalanceHandler *balancehttp.Handler
	ImportHandler  *importer.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router serving the dashboard API and SPA.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		if params.BalanceHandler != nil {
			params.BalanceHandler.MountRoutes(api)
		}
		if params.ImportHandler != nil {
			params.ImportHandler.MountRoutes(api)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
		return r
	}
	fileServer := http.FileServer(http.FS(staticFS))
	r.Handle("/static/*", staticCacheHandler(http.StripPrefix("/static/", fileServer)))

	// The dashboard is a single-page app: any other GET serves its shell
	// and the client router takes over.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		req.URL.Path = "/"
		fileServer.ServeHTTP(w, req)
	})

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers so
// hashed bundle assets stay in the browser cache for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
