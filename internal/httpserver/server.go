// Package httpserver binds a listener early and serves on it later, matching
// the boot phases: listeners are bound during Start so port conflicts fail
// the boot, and handlers are served from NotifyAfterCompleted.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/vk/tracegrid/internal/ctxlog"
)

// ShutdownTimeout bounds a graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Server is a bound listener that serves at most once.
type Server struct {
	name        string
	listener    net.Listener
	readTimeout time.Duration

	mu   sync.Mutex
	srv  *http.Server
	done chan struct{}
}

// Listen binds host:port. Port 0 picks a free port. If ctx ends before
// Serve is called the listener is released, so a boot that fails after
// Start does not keep the port.
func Listen(ctx context.Context, name, host string, port int) (*Server, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to listen on %s: %w", name, addr, err)
	}
	s := &Server{name: name, listener: ln}
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	return s, nil
}

// Addr returns the bound address, with the real port when 0 was requested.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// URL returns an http URL for the bound address.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Serve starts serving h in the background. Handlers can read the logger
// from the request context. The server shuts down gracefully once ctx ends.
func (s *Server) Serve(ctx context.Context, h http.Handler) error {
	logger := ctxlog.FromContext(ctx).With("server", s.name)

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return fmt.Errorf("%s: already serving", s.name)
	}
	s.srv = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.readTimeout,
		// Request contexts carry the serving logger but outlive ctx, so
		// in-flight requests finish during shutdown.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.done = make(chan struct{})
	srv, done := s.srv, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		logger.Info("HTTP server starting.", "address", s.URL())
		if err := srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed unexpectedly.", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		logger.Debug("Shutting down HTTP server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed.", "error", err)
		}
	}()
	return nil
}

// SetReadTimeout sets the read timeout used once Serve is called.
func (s *Server) SetReadTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readTimeout = d
}

// Close releases the listener of a server that never served. It is a no-op
// once Serve was called.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return nil
	}
	return s.listener.Close()
}
