package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Server exposes /metrics and the health endpoints over HTTP
type Server struct {
	server *http.Server
}

// NewServer creates a diagnostics server listening on addr
func NewServer(addr string) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", HealthHandler()).Methods(http.MethodGet)
	router.HandleFunc("/ready", ReadyHandler()).Methods(http.MethodGet)
	router.HandleFunc("/live", LivenessHandler()).Methods(http.MethodGet)

	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Run serves until ctx is canceled, then shuts the listener down
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
