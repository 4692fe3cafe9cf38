package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/gridpools/scorewire/internal/api/handler"
	"github.com/gridpools/scorewire/internal/cache"
	"github.com/gridpools/scorewire/internal/config"
	"github.com/gridpools/scorewire/internal/ledger"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(store handler.Store, svc *ledger.Service, appCache *cache.Cache, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "Link", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(store, svc, appCache, cfg)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/healthz", func(r chi.Router) {
		r.Get("/", h.Healthz)
		r.Get("/db", h.HealthzDB)
		r.Get("/cache", h.HealthzCache)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Events
		r.Get("/events", h.ListEvents)
		r.Post("/events", h.CreateEvent)
		r.Get("/events/{eventID}", h.GetEvent)

		// Games and their ledgers
		r.Route("/games/{gameID}", func(r chi.Router) {
			r.Get("/", h.GetGame)
			r.Get("/changes", h.ListChanges)
			r.Post("/changes", h.AppendChange)
			r.Delete("/changes/{changeOrder}", h.DeleteChange)
			r.Post("/quarters/{checkpoint}", h.MarkQuarter)
			r.Put("/quarter-scores", h.SetQuarterScores)
			r.Get("/winners", h.ListWinners)
		})

		// Pools
		r.Get("/pools/{poolID}", h.GetPool)
		r.Post("/pools/{poolID}/lock", h.LockPool)
	})

	return r
}
