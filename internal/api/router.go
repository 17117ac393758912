// Package api assembles the facturier HTTP API: routing, middleware,
// and the services behind the handlers.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/facturier/facturier/internal/api/handlers"
	"github.com/facturier/facturier/internal/api/middleware"
	"github.com/facturier/facturier/internal/auth"
	"github.com/facturier/facturier/internal/cache"
	"github.com/facturier/facturier/internal/config"
	"github.com/facturier/facturier/internal/observability"
	"github.com/facturier/facturier/internal/pdftext"
	"github.com/facturier/facturier/internal/render"
	"github.com/facturier/facturier/internal/storage"
	"github.com/facturier/facturier/internal/uploadstore"
)

// Dependencies holds the long-lived services the router wires into handlers.
// They are constructed in main so shutdown can close them in order.
type Dependencies struct {
	DB       *sql.DB
	Repos    *storage.Repositories
	Cache    cache.Client // nil disables PDF caching
	Identity *auth.Client // nil when hosted identity is not configured
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	// Health check (unauthenticated)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"facturier"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := deps.DB.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable","reason":"database"}`))
			return
		}
		if deps.Cache != nil {
			if err := deps.Cache.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable","reason":"cache"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	// Create service dependencies
	renderer := render.NewRenderer(cfg.Render.LogoPath)
	uploads := uploadstore.New(cfg.Uploads.Dir)
	reader := pdftext.NewReader()

	// A nil *auth.Client must stay a nil interface for the disabled checks.
	var identity handlers.Identity
	var verifier middleware.Verifier
	if deps.Identity != nil {
		identity = deps.Identity
		verifier = deps.Identity
	}
	requireUser := middleware.RequireUser(cfg.Auth, verifier)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(logger, identity, deps.Repos.Profiles)
	invoiceHandler := handlers.NewInvoiceHandler(logger, deps.Repos.Invoices, deps.Cache, cfg.Cache.TTL, renderer)
	uploadHandler := handlers.NewUploadHandler(logger, uploads, reader, cfg.MaxUploadBytes(), cfg.Uploads.RawTextLimit)
	defaultsHandler := handlers.NewDefaultsHandler(cfg.Render)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/defaults", defaultsHandler.Defaults)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Post("/signout", authHandler.SignOut)
				r.Get("/me", authHandler.Me)
				r.Put("/profile", authHandler.UpdateProfile)
			})
		})

		r.Route("/invoices", func(r chi.Router) {
			// Preview renders without persisting, so no account is needed.
			r.Post("/preview", invoiceHandler.Preview)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Post("/", invoiceHandler.Create)
				r.Get("/", invoiceHandler.List)
				r.Get("/export", invoiceHandler.Export)

				r.Route("/{invoiceID}", func(r chi.Router) {
					r.Get("/", invoiceHandler.Get)
					r.Delete("/", invoiceHandler.Delete)
					r.Get("/pdf", invoiceHandler.PDF)
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/upload", uploadHandler.Upload)
		})
	})

	return r
}
