// Package server implements the HTTP server, middleware, and request handlers for the application.
package server

import (
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/game"
	"github.com/woozymasta/mcstatus/internal/geoip"
	"github.com/woozymasta/mcstatus/internal/metrics"
)

// New creates a new Server. history and geo are optional; pass an untyped nil
// to disable them.
func New(cfg *config.Config, querier Querier, history History, geo *geoip.Provider, m *metrics.Metrics) *Server {
	hostMap := make(map[uint64]struct{})
	for _, host := range cfg.Server.AllowedHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		hostMap[xxhash.Sum64String(host)] = struct{}{}
	}

	workers := cfg.Server.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.Server.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	return &Server{
		querier:      querier,
		history:      history,
		geoip:        geo,
		metrics:      m,
		sourceQuery:  game.QuerySource,
		a2sOptions:   cfg.A2S,
		authToken:    cfg.Server.AuthToken,
		allowedHosts: hostMap,
		trustProxy:   cfg.Server.TrustProxy,
		limitCount:   cfg.RateLimit.Count,
		limitWin:     cfg.RateLimit.Window,
		workers:      workers,

		queue:    make(chan historyJob, queueSize),
		shutdown: make(chan struct{}),
	}
}

// StartWorkers initializes the background worker pool that writes query history.
func (s *Server) StartWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// StopWorkers stops accepting history jobs and waits for queued ones to be written.
func (s *Server) StopWorkers() {
	s.stopOnce.Do(func() { close(s.shutdown) })
	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /version", http.HandlerFunc(s.handleVersion))
	mux.Handle("GET /status/{host}/{port}", s.RateLimitMiddleware(http.HandlerFunc(s.handleStatus)))
	mux.Handle("GET /metrics", s.metrics.Handler())

	if s.authToken != "" {
		mux.Handle("GET /api/info", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleInfo)))
		mux.Handle("GET /api/a2s", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleSourceQuery)))
		mux.Handle("GET /api/history", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleHistory)))
		mux.Handle("DELETE /api/history", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handlePruneHistory)))
	}

	return s.LoggingMiddleware(mux)
}

// hostAllowed reports whether host may be queried. Host names compare case-insensitively.
func (s *Server) hostAllowed(host string) bool {
	if len(s.allowedHosts) == 0 {
		return true
	}

	_, ok := s.allowedHosts[xxhash.Sum64String(strings.ToLower(host))]
	return ok
}
