package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"etlapi/internal/middleware"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// RouterConfig holds the HTTP policy knobs taken from configuration.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimit      middleware.RateLimitConfig
	Logger         *slog.Logger
}

// NewRouter mounts every endpoint behind the shared middleware stack.
// Security headers wrap everything so that preflight replies, panics and
// 429s carry them too.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.RateLimiter(cfg.RateLimit))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     cfg.AllowedOrigins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:     []string{middleware.RequestIDHeader},
		MaxAge:             300,
		OptionsPassthrough: true,
	}))
	r.Use(chimw.RequestSize(MaxBodyBytes))

	r.Get("/", h.Index)
	r.Get("/openapi.json", h.OpenAPI)

	r.Options("/etl", h.Preflight)
	r.Post("/etl", h.RunETL)
	r.Get("/etl/sources", h.ListSources)
	r.Get("/etl/preview", h.Preview)
	r.Get("/etl/runs", h.ListRuns)

	return r
}
