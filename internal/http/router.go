package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker func(ctx context.Context) error

// RouterConfig wires the handlers and cross-cutting concerns of the API.
type RouterConfig struct {
	Members     *MemberHandler
	Absences    *AbsenceHandler
	Assignments *AssignmentHandler
	Planning    *PlanningHandler
	Metrics     http.Handler
	Health      HealthChecker
	CORSOrigins []string
	// WriteRateLimit caps mutating requests per IP and minute; 0 disables it.
	WriteRateLimit int
	Logger         *slog.Logger
	Middleware     []func(http.Handler) http.Handler
}

// NewRouter builds the chi router serving every endpoint listed in the package documentation.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	resp := newResponder(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.CORSOrigins))
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		resp.writeJSON(req.Context(), w, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)})
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Health(ctx); err != nil {
				resp.writeJSON(req.Context(), w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		resp.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(WriteRateLimit(cfg.WriteRateLimit, logger))

		if cfg.Members != nil {
			api.Get("/members", cfg.Members.List)
			api.Post("/members", cfg.Members.Create)
			api.Get("/members/{id}", cfg.Members.Get)
			api.Delete("/members/{id}", cfg.Members.Delete)
		}

		if cfg.Absences != nil {
			api.Get("/members/{id}/absences", cfg.Absences.ListForMember)
			api.Get("/members/{id}/absent", cfg.Absences.IsAbsent)
			api.Post("/members/{id}/absences/consolidate", cfg.Absences.ConsolidateMember)

			api.Get("/absences", cfg.Absences.List)
			api.Post("/absences", cfg.Absences.Create)
			api.Get("/absences/today", cfg.Absences.Today)
			api.Delete("/absences/{id}", cfg.Absences.Delete)

			api.Post("/maintenance/consolidate", cfg.Absences.ConsolidateAll)
		}

		if cfg.Assignments != nil {
			api.Route("/assignments", func(ar chi.Router) {
				ar.Get("/recurring", cfg.Assignments.ListRecurring)
				ar.Post("/recurring", cfg.Assignments.CreateRecurring)
				ar.Delete("/recurring/{id}", cfg.Assignments.DeleteRecurring)
				ar.Put("/recurring/{weekday}/{slot}", cfg.Assignments.SetRoster)

				ar.Get("/specific", cfg.Assignments.ListSpecific)
				ar.Post("/specific", cfg.Assignments.CreateSpecific)
				ar.Post("/specific/generate", cfg.Assignments.Generate)
				ar.Delete("/specific/{id}", cfg.Assignments.DeleteSpecific)
			})
		}

		if cfg.Planning != nil {
			api.Get("/planning", cfg.Planning.Range)
			api.Get("/planning/week", cfg.Planning.Week)
			api.Get("/planning/three-weeks", cfg.Planning.ThreeWeeks)
			api.Get("/planning/export", cfg.Planning.Export)
		}
	})

	return r
}
