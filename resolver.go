package sinkhole

import (
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
)

// Resolver is an interface to resolve DNS queries.
type Resolver interface {
	Resolve(*dns.Msg) (*dns.Msg, error)
	fmt.Stringer
}

// SinkholeResolver classifies every query against the current RuleSet and
// either answers it with the sinkhole address or relays it to the upstream
// resolver. Every resolved query is recorded with the stats collector exactly
// once, regardless of outcome.
type SinkholeResolver struct {
	store    *RuleStore
	upstream Resolver
	stats    *StatsCollector
}

var _ Resolver = &SinkholeResolver{}

// TTL of synthesized sinkhole answers. Kept short so unblocking a domain
// takes effect quickly on clients.
const sinkholeTTL = 60

// NewSinkholeResolver returns a new instance of a SinkholeResolver.
func NewSinkholeResolver(store *RuleStore, upstream Resolver, stats *StatsCollector) *SinkholeResolver {
	return &SinkholeResolver{
		store:    store,
		upstream: upstream,
		stats:    stats,
	}
}

// Resolve a DNS query. A nil response with an error means the query was
// malformed and should be dropped without answering.
func (r *SinkholeResolver) Resolve(q *dns.Msg) (*dns.Msg, error) {
	if len(q.Question) == 0 {
		return nil, errors.New("no question in query")
	}
	question := q.Question[0]
	name := canonicalName(question.Name)

	rs := r.store.Current()
	decision := rs.Decide(name)
	log := logger(q).WithField("decision", decision)

	r.stats.Record(QueryOutcome{
		Time:     time.Now(),
		Domain:   name,
		Qtype:    dns.TypeToString[question.Qtype],
		Decision: decision,
	})

	if decision == Blocked {
		log.Debug("answering with sinkhole address")
		return sinkholeAnswer(q, rs), nil
	}

	a, err := r.upstream.Resolve(q)
	if err != nil {
		upstreamFailures.Inc()
		log.WithError(err).Error("upstream resolution failed")
		return servfail(q), nil
	}
	log.Debug("relaying upstream answer")
	return a, nil
}

func (r *SinkholeResolver) String() string {
	return fmt.Sprintf("Sinkhole(%s)", r.upstream)
}

// sinkholeAnswer builds the response for a blocked query. A and AAAA queries
// get the configured sinkhole address, every other type gets an authoritative
// answer with no records.
func sinkholeAnswer(q *dns.Msg, rs *RuleSet) *dns.Msg {
	question := q.Question[0]

	a := new(dns.Msg)
	a.SetReply(q)
	a.Authoritative = true
	a.RecursionAvailable = q.RecursionDesired

	hdr := dns.RR_Header{
		Name:  question.Name,
		Class: question.Qclass,
		Ttl:   sinkholeTTL,
	}
	switch question.Qtype {
	case dns.TypeA:
		if rs.sink4 != nil {
			hdr.Rrtype = dns.TypeA
			a.Answer = append(a.Answer, &dns.A{Hdr: hdr, A: rs.sink4.To4()})
		}
	case dns.TypeAAAA:
		if rs.sink6 != nil {
			hdr.Rrtype = dns.TypeAAAA
			a.Answer = append(a.Answer, &dns.AAAA{Hdr: hdr, AAAA: rs.sink6.To16()})
		}
	}
	return a
}

var upstreamFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "sinkhole_upstream_failures_total",
		Help: "Queries answered with SERVFAIL because the upstream resolver failed",
	},
)

func init() {
	prometheus.MustRegister(upstreamFailures)
}
