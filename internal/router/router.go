package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/voyago/tripweaver/internal/api"
	"github.com/voyago/tripweaver/internal/api/livecache"
	"github.com/voyago/tripweaver/internal/api/planner"
)

// Config contains the handlers the router mounts.
type Config struct {
	PlannerHandler *planner.Handler
	CacheHandler   *livecache.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (request ID, recoverer, logging) are applied before
// mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		api.WriteJSONResponse(w, req, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Unversioned alias kept for older clients.
	r.Post("/plan", cfg.PlannerHandler.CreatePlan)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/plan", cfg.PlannerHandler.CreatePlan)
		r.Delete("/cache", cfg.CacheHandler.ClearCache)
	})

	return r
}
