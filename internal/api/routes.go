package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouteOptions configures SetupRoutes.
type RouteOptions struct {
	AllowedOrigins []string
	// StaticDir holds a built browser UI; empty disables static serving.
	StaticDir string
}

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, hc *HealthChecker, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if hc != nil {
		r.Get("/health", hc.HandleHealth)
		r.Get("/health/live", hc.HandleLiveness)
		r.Get("/health/ready", hc.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/dataset/fields", h.DatasetFields)

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Put("/", h.UpdateCampaign)
				r.Delete("/", h.DeleteCampaign)

				r.Get("/queue", h.GetQueue)
				r.Get("/progress", h.GetProgress)
				r.Get("/summary", h.GetSummary)
				r.Get("/not-called", h.GetNotCalled)
				r.Get("/insights", h.GetInsights)

				r.Route("/contacts/{contactId}", func(r chi.Router) {
					r.Get("/", h.GetContact)
					r.Post("/outcome", h.RecordOutcome)
					r.Post("/survey", h.RecordSurvey)
					r.Post("/note", h.RecordNote)
				})

				r.Get("/exports/{kind}", h.DownloadExport)
				r.Post("/exports/{kind}", h.DeliverExport)
			})
		})

		r.Route("/calls", func(r chi.Router) {
			r.Get("/", h.ListCalls)
			r.Post("/", h.RecordCall)
			r.Delete("/", h.ClearCalls)
			r.Get("/export", h.ExportCalls)
		})
	})

	if opts.StaticDir != "" {
		spaHandler(r, opts.StaticDir)
	}

	return r
}

// spaHandler serves static files and falls back to index.html for SPA routing
func spaHandler(r chi.Router, staticPath string) {
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/health") {
			http.NotFound(w, req)
			return
		}

		filePath := filepath.Join(staticPath, filepath.Clean("/"+path))
		if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
			http.ServeFile(w, req, filePath)
			return
		}

		http.ServeFile(w, req, filepath.Join(staticPath, "index.html"))
	})
}
