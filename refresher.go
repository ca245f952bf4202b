package sinkhole

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Refresher periodically rebuilds the blocklist tier from a loader and
// installs the result into a RuleStore. The download happens entirely off to
// the side, the store is only touched for the final atomic install, so query
// serving is never delayed by a slow or dead blocklist source. A failed
// refresh keeps the previous RuleSet unchanged.
type Refresher struct {
	store    *RuleStore
	loader   BlocklistLoader
	interval time.Duration
	kick     chan struct{}

	mu          sync.Mutex
	lastSuccess time.Time
	lastError   string
	lastCount   int
}

// RefreshStatus describes the outcome of the most recent refresh attempts,
// surfaced on the management interface.
type RefreshStatus struct {
	LastSuccess time.Time `json:"last_success"`
	LastError   string    `json:"last_error,omitempty"`
	Rules       int       `json:"rules"`
}

// NewRefresher returns a refresher updating store from loader every interval.
func NewRefresher(store *RuleStore, loader BlocklistLoader, interval time.Duration) *Refresher {
	return &Refresher{
		store:    store,
		loader:   loader,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Run performs one refresh immediately, then refreshes on every tick or kick
// until the context is cancelled. Refresh failures are logged and never stop
// the loop.
func (r *Refresher) Run(ctx context.Context) error {
	r.refresh()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			Log.Debug("blocklist refresher stopped")
			return nil
		case <-ticker.C:
			r.refresh()
		case <-r.kick:
			r.refresh()
		}
	}
}

// Kick requests an immediate out-of-schedule refresh. It never blocks, a
// refresh already pending is good enough.
func (r *Refresher) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Status returns the outcome of the most recent refresh attempts.
func (r *Refresher) Status() RefreshStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RefreshStatus{
		LastSuccess: r.lastSuccess,
		LastError:   r.lastError,
		Rules:       r.lastCount,
	}
}

func (r *Refresher) refresh() {
	start := time.Now()
	rules, err := r.load()
	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		Log.WithError(err).Error("blocklist refresh failed, keeping previous rules")
		r.mu.Lock()
		r.lastError = err.Error()
		r.mu.Unlock()
		return
	}
	r.store.InstallBlocklist(rules)

	refreshTotal.WithLabelValues("ok").Inc()
	blocklistRules.Set(float64(len(rules)))
	Log.WithField("rules", len(rules)).
		WithField("elapsed", time.Since(start).Round(time.Millisecond)).
		Info("blocklist refreshed")

	r.mu.Lock()
	r.lastSuccess = time.Now()
	r.lastError = ""
	r.lastCount = len(rules)
	r.mu.Unlock()
}

func (r *Refresher) load() (map[string]struct{}, error) {
	lines, err := r.loader.Load()
	if err != nil {
		return nil, err
	}
	rules := ParseRules(lines)
	if len(rules) == 0 {
		return nil, errors.New("blocklist source returned no usable rules")
	}
	return rules, nil
}

var (
	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sinkhole_blocklist_refresh_total",
			Help: "Blocklist refresh attempts by result",
		},
		[]string{"result"},
	)
	blocklistRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sinkhole_blocklist_rules",
			Help: "Number of rules in the currently installed blocklist",
		},
	)
)

func init() {
	prometheus.MustRegister(refreshTotal, blocklistRules)
}
