package api

import (
	"net/http"
	"time"

	"github.com/TimurManjosov/goflagship/internal/auth"
	"github.com/TimurManjosov/goflagship/internal/eval"
	"github.com/TimurManjosov/goflagship/internal/snapshot"
	"github.com/TimurManjosov/goflagship/internal/store"
	"github.com/TimurManjosov/goflagship/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Server wires the definition store, the evaluation facade, and the
// per-tenant snapshot cache into chi's router.
type Server struct {
	store store.Store
	eval  *eval.Facade
	cache *snapshot.Cache
	auth  *auth.Authenticator

	rateLimitPerIP            int
	rateLimitEvalPerKey       int
	rateLimitManagementPerKey int
}

// NewServer builds a Server. rateLimit* are requests/minute; zero selects
// the teacher's original defaults.
func NewServer(s store.Store, evalFacade *eval.Facade, cache *snapshot.Cache, authenticator *auth.Authenticator, rateLimitPerIP, rateLimitEvalPerKey, rateLimitManagementPerKey int) *Server {
	if rateLimitPerIP <= 0 {
		rateLimitPerIP = 100
	}
	if rateLimitEvalPerKey <= 0 {
		rateLimitEvalPerKey = 2000
	}
	if rateLimitManagementPerKey <= 0 {
		rateLimitManagementPerKey = 60
	}
	return &Server{
		store:                     s,
		eval:                      evalFacade,
		cache:                     cache,
		auth:                      authenticator,
		rateLimitPerIP:            rateLimitPerIP,
		rateLimitEvalPerKey:       rateLimitEvalPerKey,
		rateLimitManagementPerKey: rateLimitManagementPerKey,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(telemetry.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match", "X-App-Id", "X-Env-Id"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Use(httprate.LimitByIP(s.rateLimitPerIP, time.Minute))

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireAudience(auth.AudienceEvaluation))
			r.Use(httprate.LimitByIP(s.rateLimitEvalPerKey, time.Minute))
			r.Post("/v1/evaluate", s.handleEvaluateBatch)
			r.Post("/v1/evaluate/{flagID}", s.handleEvaluateOne)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireAudience(auth.AudienceManagement))
			r.Use(httprate.LimitByIP(s.rateLimitManagementPerKey, time.Minute))

			r.Get("/v1/definitions", s.handleGetDefinitions)

			r.Put("/v1/flags/{flagID}", s.handlePutFlag)
			r.Patch("/v1/flags/{flagID}", s.handleUpdateFlag)
			r.Delete("/v1/flags/{flagID}", s.handleDeleteFlag)

			r.Put("/v1/segments/{segmentID}", s.handlePutSegment)
			r.Delete("/v1/segments/{segmentID}", s.handleDeleteSegment)

			r.Post("/v1/sync", s.handleSyncEnv)
			r.Post("/v1/sync/{flagID}", s.handleSyncFlag)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
