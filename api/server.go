/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RequestLog: zap line per request (method, path, status, duration, id)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the roster frontend

ROUTE GROUPS:
  /api/members/*     Roster, promotions, merit events, forecasts
  /api/forecasts     Roster forecast
  /api/vacancies     Vacancy report
  /api/boards/*      Promotion boards
  /api/statute       Tables in force
  /api/eligibility   Eligibility scan
  /api/scenarios/*   Demo rosters
  /metrics           Prometheus
  /healthz           Database ping

SECURITY NOTE:
  No authentication middleware. Deploy behind the department's gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/promotions/serve.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig holds the wiring options of NewRouter.
type RouterConfig struct {
	AllowedOrigins []string
	// Gatherer serves /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Member routes
		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/", h.CreateMember)
			r.Get("/{id}", h.GetMember)
			r.Put("/{id}", h.UpdateMember)
			r.Delete("/{id}", h.DeactivateMember)
			r.Get("/{id}/forecast", h.GetForecast)
			r.Post("/{id}/promotions", h.Promote)
			r.Get("/{id}/promotions", h.ListPromotions)
			r.Post("/{id}/events", h.RecordEvent)
			r.Get("/{id}/events", h.ListEvents)
			r.Post("/{id}/events/{entryID}/reverse", h.ReverseEvent)
			r.Get("/{id}/score", h.GetScore)
		})

		// Report routes
		r.Get("/forecasts", h.ListForecasts)
		r.Get("/vacancies", h.GetVacancies)
		r.Get("/boards/{corps}/{rank}", h.GetBoard)
		r.Get("/statute", h.GetStatute)
		r.Get("/eligibility", h.GetEligibility)
		r.Post("/eligibility/scan", h.RunEligibilityScan)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// RequestLogger logs one line per request with zap.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
