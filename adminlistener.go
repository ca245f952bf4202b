package sinkhole

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Read/Write timeout in the admin server
const adminServerTimeout = 10 * time.Second

// AdminListener serves the management interface used by the dashboard:
// statistics, the recent-activity log, allow/deny mutations and the manual
// refresh trigger. It is strictly a client of the RuleStore and
// StatsCollector contracts, there is no privileged path into either.
type AdminListener struct {
	httpServer *http.Server

	addr      string
	store     *RuleStore
	stats     *StatsCollector
	refresher *Refresher
	opt       AdminListenerOptions

	mux *chi.Mux
}

var _ Listener = &AdminListener{}

// AdminListenerOptions contains options used by the admin service.
type AdminListenerOptions struct {
	// Bearer token required on all API routes. Disabled when empty.
	Token string
}

// NewAdminListener returns an instance of a management API listener. The
// refresher may be nil when no remote blocklist source is configured.
func NewAdminListener(addr string, store *RuleStore, stats *StatsCollector, refresher *Refresher, opt AdminListenerOptions) *AdminListener {
	l := &AdminListener{
		addr:      addr,
		store:     store,
		stats:     stats,
		refresher: refresher,
		opt:       opt,
		mux:       chi.NewRouter(),
	}
	l.mux.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Timeout(adminServerTimeout))

	l.mux.Get("/api/health", l.health)
	l.mux.Handle("/metrics", promhttp.Handler())

	l.mux.Group(func(r chi.Router) {
		r.Use(l.auth)
		r.Get("/api/stats", l.getStats)
		r.Get("/api/logs", l.getLogs)

		r.Post("/api/allow", l.addDomain(l.store.AddAllow))
		r.Delete("/api/allow/{domain}", l.removeDomain(l.store.RemoveAllow))
		r.Put("/api/allow", l.replaceList(l.store.SetAllowlist))

		r.Post("/api/deny", l.addDomain(l.store.AddDeny))
		r.Delete("/api/deny/{domain}", l.removeDomain(l.store.RemoveDeny))
		r.Put("/api/deny", l.replaceList(l.store.SetDenylist))

		r.Post("/api/refresh", l.refreshNow)
	})
	return l
}

// Start the admin server.
func (s *AdminListener) Start() error {
	Log.WithField("addr", s.addr).Info("starting admin listener")
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  adminServerTimeout,
		WriteTimeout: adminServerTimeout,
	}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop the admin server gracefully.
func (s *AdminListener) Stop(ctx context.Context) error {
	Log.WithField("addr", s.addr).Info("stopping admin listener")
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *AdminListener) String() string {
	return fmt.Sprintf("AdminListener(%s)", s.addr)
}

func (s *AdminListener) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opt.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") || strings.TrimPrefix(h, "Bearer ") != s.opt.Token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *AdminListener) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *AdminListener) getStats(w http.ResponseWriter, r *http.Request) {
	stats := s.stats.Snapshot()
	rs := s.store.Current()
	body := map[string]any{
		"total_queries":   stats.TotalQueries,
		"blocked_queries": stats.BlockedQueries,
		"blocklist_size":  rs.BlocklistSize(),
		"allowlist":       rs.Allowlist(),
		"denylist":        rs.Denylist(),
		"ruleset_version": rs.Version(),
	}
	if s.refresher != nil {
		body["refresh"] = s.refresher.Status()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *AdminListener) getLogs(w http.ResponseWriter, r *http.Request) {
	recent := s.stats.Snapshot().Recent
	// Newest first for the dashboard
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": recent})
}

func (s *AdminListener) addDomain(mutate func(string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Domain string `json:"domain"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := mutate(req.Domain); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *AdminListener) removeDomain(mutate func(string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mutate(chi.URLParam(r, "domain")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *AdminListener) replaceList(mutate func([]string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Domains []string `json:"domains"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := mutate(req.Domains); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(req.Domains)})
	}
}

func (s *AdminListener) refreshNow(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		http.Error(w, "no blocklist source configured", http.StatusConflict)
		return
	}
	s.refresher.Kick()
	writeJSON(w, http.StatusAccepted, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
