package sinkhole

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueryOutcome is the per-query record written to the stats collector.
type QueryOutcome struct {
	Time     time.Time `json:"time"`
	Domain   string    `json:"domain"`
	Qtype    string    `json:"qtype"`
	Decision Decision  `json:"decision"`
}

// Stats is a point-in-time copy of the collected statistics.
type Stats struct {
	TotalQueries   uint64         `json:"total_queries"`
	BlockedQueries uint64         `json:"blocked_queries"`
	Recent         []QueryOutcome `json:"recent"`
}

// StatsCollector keeps exact query counters and a bounded log of recent
// activity. Writers hold the lock only long enough to bump counters and
// append one entry, so recording never waits on a network call or a reader
// walking the log.
type StatsCollector struct {
	mu       sync.Mutex
	total    uint64
	blocked  uint64
	recent   []QueryOutcome
	capacity int
	syslog   *SyslogSink
}

// StatsOptions configures a StatsCollector.
type StatsOptions struct {
	// Capacity of the recent-activity log, oldest entries are evicted
	// first. Defaults to 100.
	Capacity int

	// Optional, send a copy of every outcome to syslog.
	Syslog *SyslogSink
}

const defaultRecentCapacity = 100

// NewStatsCollector returns a new instance of a StatsCollector.
func NewStatsCollector(opt StatsOptions) *StatsCollector {
	if opt.Capacity <= 0 {
		opt.Capacity = defaultRecentCapacity
	}
	return &StatsCollector{
		capacity: opt.Capacity,
		syslog:   opt.Syslog,
	}
}

// Record one query outcome. Safe for arbitrary concurrent callers, no update
// is ever lost or double-counted.
func (s *StatsCollector) Record(o QueryOutcome) {
	s.mu.Lock()
	s.total++
	if o.Decision == Blocked {
		s.blocked++
	}
	s.recent = append(s.recent, o)
	if len(s.recent) > s.capacity {
		s.recent = s.recent[len(s.recent)-s.capacity:]
	}
	s.mu.Unlock()

	queriesTotal.WithLabelValues(string(o.Decision)).Inc()
	if s.syslog != nil {
		s.syslog.Send(o)
	}
}

// Snapshot returns a consistent copy of the counters and the recent-activity
// log, ordered oldest first.
func (s *StatsCollector) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	recent := make([]QueryOutcome, len(s.recent))
	copy(recent, s.recent)
	return Stats{
		TotalQueries:   s.total,
		BlockedQueries: s.blocked,
		Recent:         recent,
	}
}

var queriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sinkhole_queries_total",
		Help: "Total DNS queries by decision",
	},
	[]string{"decision"},
)

func init() {
	prometheus.MustRegister(queriesTotal)
}
