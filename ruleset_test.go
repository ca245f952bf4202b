package sinkhole

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, deny, allow, block []string) *RuleStore {
	t.Helper()
	store, err := NewRuleStore(RuleStoreOptions{
		SinkholeAddr:  net.ParseIP("0.0.0.0"),
		SinkholeAddr6: net.ParseIP("::"),
		Denylist:      deny,
		Allowlist:     allow,
		Blocklist:     block,
	})
	require.NoError(t, err)
	return store
}

func TestDecidePrecedence(t *testing.T) {
	// everywhere.test is in all three tiers, rescued.test in allow+block
	store := newTestStore(t,
		[]string{"denied.test", "everywhere.test"},
		[]string{"rescued.test", "everywhere.test"},
		[]string{"blocked.test", "rescued.test", "everywhere.test"},
	)
	rs := store.Current()

	tests := []struct {
		name string
		want Decision
	}{
		{"denied.test", Blocked},
		{"everywhere.test", Blocked}, // denylist beats allowlist
		{"rescued.test", Allowed},    // allowlist beats blocklist
		{"blocked.test", Blocked},
		{"unlisted.test", Passed},
	}
	for _, test := range tests {
		require.Equal(t, test.want, rs.Decide(test.name), "domain: %s", test.name)
		// Deterministic, repeated calls agree
		require.Equal(t, test.want, rs.Decide(test.name), "domain: %s", test.name)
	}
}

func TestDecideSuffixMatch(t *testing.T) {
	store := newTestStore(t, nil, nil, []string{"example.com"})
	rs := store.Current()

	tests := []struct {
		name string
		want Decision
	}{
		{"example.com", Blocked},
		{"ads.example.com", Blocked},
		{"deep.ads.example.com", Blocked},
		{"notexample.com", Passed},
		{"example.com.evil.net", Passed},
		{"com", Passed},
	}
	for _, test := range tests {
		require.Equal(t, test.want, rs.Decide(test.name), "domain: %s", test.name)
	}
}

func TestDecideSuffixAcrossTiers(t *testing.T) {
	// Tier precedence holds even when the rules match at different depths:
	// the wide allowlist rule still rescues the deeper blocklist rule.
	store := newTestStore(t,
		[]string{"tracker.site.test"},
		[]string{"site.test"},
		[]string{"cdn.site.test"},
	)
	rs := store.Current()

	require.Equal(t, Blocked, rs.Decide("x.tracker.site.test"))
	require.Equal(t, Allowed, rs.Decide("cdn.site.test"))
	require.Equal(t, Allowed, rs.Decide("site.test"))
}

func TestRuleSetAccessors(t *testing.T) {
	store := newTestStore(t, []string{"b.test", "a.test"}, []string{"c.test"}, []string{"x.test", "y.test"})
	rs := store.Current()

	require.Equal(t, []string{"a.test", "b.test"}, rs.Denylist())
	require.Equal(t, []string{"c.test"}, rs.Allowlist())
	require.Equal(t, 2, rs.BlocklistSize())
	require.Equal(t, uint64(1), rs.Version())
}
