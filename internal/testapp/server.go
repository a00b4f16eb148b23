package testapp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server runs an App on a TCP listener
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *zap.Logger
	done   chan error
}

// Start listens on addr and serves app in the background.
// Use "127.0.0.1:0" to pick a free port.
func Start(addr string, app *App) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	s := &Server{
		srv: &http.Server{
			Handler:           app,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ln:     ln,
		logger: app.logger,
		done:   make(chan error, 1),
	}

	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()

	s.logger.Info("Fixture app listening", zap.String("url", s.URL()))
	return s, nil
}

// URL returns the base URL of the running server
func (s *Server) URL() string {
	return "http://" + s.ln.Addr().String()
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down fixture app: %w", err)
	}
	return <-s.done
}
