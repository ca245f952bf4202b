package sinkhole

import (
	"net"
	"sync"
	"sync/atomic"
)

// RuleStore holds the single current RuleSet for the process. Readers get the
// latest snapshot without blocking, writers build a full replacement and swap
// it in with one atomic store. A scheduled blocklist refresh only ever writes
// the blocklist tier and management edits only touch the deny/allow tiers, so
// neither kind of writer can undo the other's change even when racing.
type RuleStore struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[RuleSet]
}

// RuleStoreOptions configures the initial RuleSet. List entries are
// normalized and rejected with an error if malformed.
type RuleStoreOptions struct {
	// Address answered for blocked A queries.
	SinkholeAddr net.IP

	// Address answered for blocked AAAA queries. Optional, blocked AAAA
	// queries get an empty answer when unset.
	SinkholeAddr6 net.IP

	// Seed rules, typically from configuration.
	Denylist  []string
	Allowlist []string
	Blocklist []string
}

// NewRuleStore returns a store initialized from the given options.
func NewRuleStore(opt RuleStoreOptions) (*RuleStore, error) {
	deny, err := normalizeAll(opt.Denylist)
	if err != nil {
		return nil, err
	}
	allow, err := normalizeAll(opt.Allowlist)
	if err != nil {
		return nil, err
	}
	block, err := normalizeAll(opt.Blocklist)
	if err != nil {
		return nil, err
	}
	s := new(RuleStore)
	s.current.Store(&RuleSet{
		deny:    deny,
		allow:   allow,
		block:   block,
		sink4:   opt.SinkholeAddr,
		sink6:   opt.SinkholeAddr6,
		version: 1,
	})
	return s, nil
}

// Current returns the latest installed snapshot. It never blocks, not even
// while a refresh or edit is in progress.
func (s *RuleStore) Current() *RuleSet {
	return s.current.Load()
}

// InstallBlocklist swaps in a new RuleSet carrying the given blocklist while
// keeping the current deny/allow tiers. The set is owned by the store after
// the call.
func (s *RuleStore) InstallBlocklist(block map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.current.Load()
	s.current.Store(&RuleSet{
		deny:    cur.deny,
		allow:   cur.allow,
		block:   block,
		sink4:   cur.sink4,
		sink6:   cur.sink6,
		version: cur.version + 1,
	})
}

// AddDeny adds a domain to the denylist. Adding a domain that is already
// present is a no-op that still succeeds.
func (s *RuleStore) AddDeny(domain string) error {
	return s.editTier(domain, tierDeny, true)
}

// RemoveDeny removes a domain from the denylist. Removing an absent domain is
// a no-op that still succeeds.
func (s *RuleStore) RemoveDeny(domain string) error {
	return s.editTier(domain, tierDeny, false)
}

// AddAllow adds a domain to the allowlist.
func (s *RuleStore) AddAllow(domain string) error {
	return s.editTier(domain, tierAllow, true)
}

// RemoveAllow removes a domain from the allowlist.
func (s *RuleStore) RemoveAllow(domain string) error {
	return s.editTier(domain, tierAllow, false)
}

// SetDenylist replaces the entire denylist. The swap happens only if every
// domain normalizes, a single bad entry rejects the whole request.
func (s *RuleStore) SetDenylist(domains []string) error {
	return s.replaceTier(domains, tierDeny)
}

// SetAllowlist replaces the entire allowlist.
func (s *RuleStore) SetAllowlist(domains []string) error {
	return s.replaceTier(domains, tierAllow)
}

type tier int

const (
	tierDeny tier = iota
	tierAllow
)

func (s *RuleStore) editTier(domain string, t tier, add bool) error {
	name, err := NormalizeDomain(domain)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.current.Load()
	next := &RuleSet{
		deny:    cur.deny,
		allow:   cur.allow,
		block:   cur.block,
		sink4:   cur.sink4,
		sink6:   cur.sink6,
		version: cur.version + 1,
	}
	switch t {
	case tierDeny:
		next.deny = editSet(cur.deny, name, add)
	case tierAllow:
		next.allow = editSet(cur.allow, name, add)
	}
	s.current.Store(next)
	return nil
}

func (s *RuleStore) replaceTier(domains []string, t tier) error {
	set, err := normalizeAll(domains)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.current.Load()
	next := &RuleSet{
		deny:    cur.deny,
		allow:   cur.allow,
		block:   cur.block,
		sink4:   cur.sink4,
		sink6:   cur.sink6,
		version: cur.version + 1,
	}
	switch t {
	case tierDeny:
		next.deny = set
	case tierAllow:
		next.allow = set
	}
	s.current.Store(next)
	return nil
}

func editSet(set map[string]struct{}, name string, add bool) map[string]struct{} {
	out := cloneSet(set)
	if add {
		out[name] = struct{}{}
	} else {
		delete(out, name)
	}
	return out
}

func normalizeAll(domains []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		name, err := NormalizeDomain(d)
		if err != nil {
			return nil, err
		}
		set[name] = struct{}{}
	}
	return set, nil
}
