package sinkhole

import (
	"net"
	"sort"
)

// Decision is the classification of a single query.
type Decision string

const (
	// Passed means no rule matched and the query goes upstream.
	Passed Decision = "passed"
	// Blocked means a denylist or blocklist rule matched.
	Blocked Decision = "blocked"
	// Allowed means an allowlist rule rescued the query from the blocklist.
	Allowed Decision = "allowed"
)

// RuleSet is an immutable snapshot of all decision rules plus the sinkhole
// addresses used to answer blocked queries. A new RuleSet is built wholesale
// on every refresh or edit, it is never modified once installed into a
// RuleStore, so readers can use it without locking.
type RuleSet struct {
	deny    map[string]struct{}
	allow   map[string]struct{}
	block   map[string]struct{}
	sink4   net.IP
	sink6   net.IP
	version uint64
}

// Decide classifies a canonicalized domain name. Precedence is strictly by
// tier: denylist first, then allowlist, then blocklist. Each tier matches the
// name itself or any ancestor suffix, so a rule for example.com covers
// sub.example.com as well.
func (r *RuleSet) Decide(name string) Decision {
	if matchSuffix(r.deny, name) {
		return Blocked
	}
	if matchSuffix(r.allow, name) {
		return Allowed
	}
	if matchSuffix(r.block, name) {
		return Blocked
	}
	return Passed
}

// matchSuffix walks from the full name up to the TLD, testing each suffix for
// set membership. The walk is bounded by the label count of the name.
func matchSuffix(set map[string]struct{}, name string) bool {
	for n := name; n != ""; n = parentDomain(n) {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}

// Version returns the monotonic counter incremented on every swap.
func (r *RuleSet) Version() uint64 { return r.version }

// BlocklistSize returns the number of rules in the remote blocklist tier.
func (r *RuleSet) BlocklistSize() int { return len(r.block) }

// Denylist returns the local force-block rules in sorted order.
func (r *RuleSet) Denylist() []string { return sortedDomains(r.deny) }

// Allowlist returns the local force-unblock rules in sorted order.
func (r *RuleSet) Allowlist() []string { return sortedDomains(r.allow) }

func sortedDomains(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func cloneSet(set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for d := range set {
		out[d] = struct{}{}
	}
	return out
}
