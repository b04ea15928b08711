package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

type Server struct {
	cfg    *config.HTTPConfig
	convs  core.Conversations
	server *http.Server
}

func NewServer(cfg *config.HTTPConfig, convs core.Conversations) *Server {
	s := &Server{cfg: cfg, convs: convs}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the API router. The base context carries the logger.
func (s *Server) Routes(base context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))
	r.Use(withLogger(base))

	r.Post("/v1/sessions/{sessionID}/turns", s.submitTurn)
	r.Delete("/v1/sessions/{sessionID}", s.closeSession)
	r.Get("/v1/sessions/{sessionID}/log", s.longTermLog)

	return r
}

func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.Routes(ctx)
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	log.FromCtx(ctx).Info().Str("addr", s.cfg.Addr).Msg("starting http server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// withLogger puts the base logger, tagged with the request id, on every
// request context.
func withLogger(base context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.FromCtx(base).With().
				Str("request_id", chiMiddleware.GetReqID(r.Context())).
				Logger()
			next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
		})
	}
}
