package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/windycity/chirecs/internal/metrics"
)

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// RateLimitConfig limits mutating requests per client IP. Requests <= 0 disables it.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RouterConfig holds the middleware settings of the API router.
type RouterConfig struct {
	APIKeys   []string
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

// Router mounts every API route on a new chi router. Outer middlewares
// (recoverer, request ID, request logging) run before CORS and metrics.
// Mutating routes additionally pass the rate limiter and bearer auth.
func (s *Server) Router(cfg RouterConfig, outer ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(outer...)
	r.Use(corsMiddleware(cfg.CORS))
	r.Use(metrics.Middleware())

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	mutating := chi.Chain(rateLimitMiddleware(cfg.RateLimit), BearerAuthMiddleware(cfg.APIKeys))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.HealthCheck)
		r.Get("/stats", s.Stats)
		r.With(mutating...).Post("/seed", s.Seed)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", s.ListRecommendations)
			r.Get("/nearby", s.NearbyRecommendations)
			r.Get("/{id}", s.GetRecommendation)
			r.With(mutating...).Post("/", s.CreateRecommendation)
			r.With(mutating...).Delete("/{id}", s.DeleteRecommendation)
		})

		r.Get("/hotspots", s.Hotspots)
		r.Get("/hotspots/lookup", s.HotspotLookup)
		r.Get("/hotspots.geojson", s.HotspotsGeoJSON)
		r.Get("/hotspots.png", s.HotspotsPNG)
	})

	return r
}

func corsMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         cfg.MaxAge,
	})
}

func rateLimitMiddleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(
		cfg.Requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, codeRateLimited, "too many requests, try again later")
		}),
	)
}
