package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/audiencelab-io/audiencelab/internal/api/handlers"
	appMiddleware "github.com/audiencelab-io/audiencelab/internal/api/middlewares"
	"github.com/audiencelab-io/audiencelab/internal/config"
	"github.com/audiencelab-io/audiencelab/internal/services"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Audiences   *services.AudienceService
	Sessions    *services.SessionService
	Simulations *services.SimulationService
	Exports     *services.ExportService
	Briefs      *services.BriefService
	Users       *services.UserService
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, log *zap.Logger, svc *Services) *Server {
	authHandler := handlers.NewAuthHandler(svc.Users, cfg.JWTSecret)
	audienceHandler := handlers.NewAudienceHandler(svc.Audiences, svc.Exports)
	personaHandler := handlers.NewPersonaHandler(svc.Audiences)
	sessionHandler := handlers.NewSessionHandler(svc.Sessions)
	simulationHandler := handlers.NewSimulationHandler(svc.Simulations)
	briefHandler := handlers.NewBriefHandler(svc.Briefs)
	settingsHandler := handlers.NewSettingsHandler()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))

			protected.Post("/audiences/suggest-groups", audienceHandler.SuggestGroups)
			protected.Post("/audiences/generate", audienceHandler.Generate)
			protected.Get("/audiences/generate/{token}", audienceHandler.GenerationStatus)
			protected.Post("/audiences", audienceHandler.Save)
			protected.Get("/audiences", audienceHandler.List)
			protected.Get("/audiences/similar", audienceHandler.Similar)
			protected.Delete("/audiences/{id}", audienceHandler.Delete)
			protected.Post("/audiences/{audienceId}/export", audienceHandler.Export)

			protected.Get("/personas", personaHandler.List)
			protected.Get("/personas/{personaId}", personaHandler.Get)

			protected.Post("/sessions", sessionHandler.Create)
			protected.Get("/sessions", sessionHandler.List)
			protected.Post("/sessions/{id}/activate", sessionHandler.Activate)
			protected.Patch("/sessions/{id}", sessionHandler.Rename)
			protected.Delete("/sessions/{id}", sessionHandler.Delete)

			protected.Post("/simulations/ads", simulationHandler.SimulateAds)
			protected.Post("/simulations/keywords", simulationHandler.SimulateKeywords)

			protected.Post("/briefs/upload", briefHandler.Upload)
			protected.Get("/briefs", briefHandler.List)
			protected.Get("/briefs/{id}/download", briefHandler.Download)
			protected.Delete("/briefs/{id}", briefHandler.Delete)

			protected.Get("/settings/integrations", settingsHandler.Integrations)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log}
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	s.log.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Fatal("server error", zap.Error(err))
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
