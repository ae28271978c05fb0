package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/docscope/internal/api/handlers"
	middleware "github.com/markdave123-py/docscope/internal/api/middlewares"
	"github.com/markdave123-py/docscope/internal/config"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Tokens    middleware.TokenParser
	Auth      *handlers.AuthHandler
	Documents *handlers.DocumentHandler
	Chat      *handlers.ChatHandler
	Sessions  *handlers.SessionHandler
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewRouter builds and wires all routes.
func NewRouter(cfg *config.Config, h Handlers) http.Handler {
	limit := func(rl config.RateLimit) func(http.Handler) http.Handler {
		return middleware.NewRateLimiter(rl.PerMinute, rl.Burst, handlers.WriteError).Handler
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(slog.Default()))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", handlers.Health)

	r.Group(func(api chi.Router) {
		api.Use(middleware.OptionalJWT(h.Tokens, handlers.WriteError))
		api.Use(limit(cfg.RateLimitDefault))

		api.With(limit(cfg.RateLimitUpload)).Post("/upload", h.Documents.UploadDocuments)
		api.With(limit(cfg.RateLimitAsk)).Post("/ask", h.Chat.Ask)
		api.Get("/documents", h.Documents.ListDocuments)
		api.Post("/sessions", h.Sessions.Create)

		api.Route("/auth", func(authR chi.Router) {
			authR.Use(limit(cfg.RateLimitAuth))
			authR.Post("/register", h.Auth.Register)
			authR.Post("/token", h.Auth.Token)
		})
	})

	return r
}

func NewServer(cfg *config.Config, h Handlers) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
