// Package server exposes the dependency snapshot over HTTP and pushes
// change notifications to websocket clients. It is a localhost dev
// surface, not a hardened public API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkgtree/pkgtree/core/config"
	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/tracker"
	"github.com/pkgtree/pkgtree/core/tree"
)

type Server struct {
	Config   *config.Config
	provider *tree.Provider
	tracker  *tracker.Tracker
	hub      *Hub
}

func NewServer(cfg *config.Config, provider *tree.Provider) *Server {
	return &Server{
		Config:   cfg,
		provider: provider,
		tracker:  tracker.New(provider),
		hub:      newHub(),
	}
}

type treeChangedMessage struct {
	Type     string `json:"type"`
	Root     string `json:"root"`
	Packages int    `json:"packages"`
	Reason   string `json:"reason"`
}

type cycleMessage struct {
	Type string `json:"type"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Start serves until ctx is cancelled or the listener fails. The initial
// load happens before the listener opens so the first request never
// observes the loading state.
func (s *Server) Start(ctx context.Context) error {
	if err := s.provider.Load(ctx); err != nil {
		logger.Warn("Initial workspace load failed: %v", err)
	}

	unsubscribe := s.provider.Subscribe(func(ev tree.Event) {
		s.hub.Broadcast(treeChangedMessage{Type: "tree_changed", Root: ev.Root, Packages: ev.Packages, Reason: ev.Reason})
	})
	defer unsubscribe()
	unsubscribeCycles := s.provider.SubscribeCycles(func(n tree.CycleNotice) {
		s.hub.Broadcast(cycleMessage{Type: "cycle", From: n.From, To: n.To})
	})
	defer unsubscribeCycles()

	hubCtx, cancelHub := context.WithCancel(ctx)
	defer cancelHub()
	go s.hub.run(hubCtx)

	mux := http.NewServeMux()
	s.routes(mux)

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}
