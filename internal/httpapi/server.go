package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"plexshelf/internal/api"
	"plexshelf/internal/config"
	"plexshelf/internal/logging"
)

// Server exposes an api.Service over HTTP.
type Server struct {
	bind    string
	logger  *slog.Logger
	svc     *api.Service
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New builds a server bound to cfg.API.Bind.
func New(cfg *config.Config, svc *api.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("httpapi: config and service are required")
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, errors.New("httpapi: api.bind is empty")
	}
	s := &Server{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		svc:    svc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("POST /api/match", s.handleMatch)
	mux.HandleFunc("GET /api/matches", s.handleListMatches)
	mux.HandleFunc("POST /api/matches/approve-all", s.handleBulk(s.svc.ApproveAll))
	mux.HandleFunc("POST /api/matches/reject-all", s.handleBulk(s.svc.RejectAll))
	mux.HandleFunc("POST /api/matches/{id}/approve", s.handleTransition(s.svc.Approve))
	mux.HandleFunc("POST /api/matches/{id}/reject", s.handleTransition(s.svc.Reject))
	mux.HandleFunc("POST /api/matches/{id}/reopen", s.handleTransition(s.svc.Reopen))
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("POST /api/apply", s.handleApply)
	mux.HandleFunc("POST /api/clear", s.handleClear)

	s.handler = s.withRequestLog(authMiddleware(cfg.API.Token, mux))
	return s, nil
}

// Handler returns the routed, authenticated handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Matching runs can take a while with enrichment enabled.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.listener = listener
	s.server = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
