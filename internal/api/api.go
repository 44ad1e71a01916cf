// Package api provides the HTTP surface of salesbot.
//
// It exposes the Chatwoot webhook that feeds customer messages into the
// pipeline, a direct testing endpoint, flow management endpoints, and a
// health check.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iaclub/salesbot/internal/bot"
	"github.com/iaclub/salesbot/internal/messaging"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server routes HTTP requests into the bot pipeline and the messaging
// backend.
type Server struct {
	orchestrator *bot.Orchestrator
	msgService   messaging.Service
	addr         string
}

// NewServer creates an API server over the given pipeline and messaging
// service.
func NewServer(orchestrator *bot.Orchestrator, msgService messaging.Service, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		orchestrator: orchestrator,
		msgService:   msgService,
		addr:         cfg.Addr,
	}
}

// Handler returns the server's route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/chatwoot", s.webhookHandler)
	mux.HandleFunc("/webhook/health", s.healthHandler)
	mux.HandleFunc("/bot/test", s.testHandler)
	mux.HandleFunc("/flows", s.listFlowsHandler)
	mux.HandleFunc("/flows/start", s.startFlowHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run serves HTTP until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server Run listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server Run shutdown failed", "error", err)
			return err
		}
		slog.Info("Server Run shut down")
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server Run failed", "error", err)
			return err
		}
		return nil
	}
}
