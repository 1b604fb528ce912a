// Package apiserver implements the read-only HTTP surface described in
// spec.md §4.10: run listing and detail, per-category evidence, risk
// and recommendation retrieval, trend history, and the optional
// repository registry used to drive in-process analysis.
package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Config controls the listening address and read-cache lifetime.
type Config struct {
	Host            string
	Port            int
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CacheTTL        time.Duration
}

// DefaultConfig returns the listening configuration spec.md §4.10 assumes:
// a 60-second read cache and permissive local-tooling CORS.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8000,
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CacheTTL:        60 * time.Second,
	}
}

// Server is the qaagent read API. now is overridable in tests so
// repository creation timestamps don't depend on the real clock.
type Server struct {
	cfg    Config
	log    *zap.Logger
	cache  *readCache
	repos  *repositoryRegistry
	router http.Handler
	now    func() time.Time
}

// New builds a Server with its router and middleware wired.
func New(cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:   cfg,
		log:   log,
		cache: newReadCache(cfg.CacheTTL),
		repos: newRepositoryRegistry(),
		now:   time.Now,
	}
	router := s.buildRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router = withCORS(cfg.AllowedOrigins, router)
	return s
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	})
	return c.Handler(next)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run binds the listening address and serves until ctx is cancelled,
// then drains in-flight requests for cfg.ShutdownTimeout before
// returning.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("api server listening", zap.String("addr", addr))
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	s.log.Info("api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("api server forced shutdown", zap.Error(err))
		return err
	}
	s.log.Info("api server exited gracefully")
	return nil
}
