// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/gofiber/fiber/v3"
	"github.com/samber/oops"
)

// Server runs the API on its own listener.
type Server struct {
	addr     string
	app      *fiber.App
	listener net.Listener
	running  atomic.Bool
	stopping atomic.Bool
}

// NewServer creates a Server for h listening on addr.
func NewServer(addr string, h *Handler) *Server {
	return &Server{addr: addr, app: h.App()}
}

// Start begins serving. The returned channel receives a serve error, if
// any, and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("HTTP_SERVER_RUNNING").Errorf("http server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("HTTP_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener
	s.stopping.Store(false)

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		err := s.app.Listener(listener, fiber.ListenConfig{DisableStartupMessage: true})
		if err != nil && !s.stopping.Load() {
			slog.Error("http server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("http server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.stopping.Store(true)
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	slog.Info("http server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
