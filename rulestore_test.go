package sinkhole

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuleStoreInstallBlocklist(t *testing.T) {
	store := newTestStore(t, []string{"denied.test"}, []string{"rescued.test"}, []string{"old.test"})

	store.InstallBlocklist(map[string]struct{}{"new.test": {}})

	rs := store.Current()
	require.Equal(t, uint64(2), rs.Version())
	require.Equal(t, Blocked, rs.Decide("new.test"))
	require.Equal(t, Passed, rs.Decide("old.test"))
	// Local overrides survive a full blocklist swap
	require.Equal(t, Blocked, rs.Decide("denied.test"))
	require.Equal(t, Allowed, rs.Decide("rescued.test"))
}

func TestRuleStoreEditIdempotence(t *testing.T) {
	store := newTestStore(t, nil, nil, nil)

	require.NoError(t, store.AddDeny("x.test"))
	require.NoError(t, store.AddDeny("x.test"))
	require.Equal(t, []string{"x.test"}, store.Current().Denylist())

	require.NoError(t, store.RemoveDeny("x.test"))
	require.NoError(t, store.RemoveDeny("x.test")) // absent, still succeeds
	require.Empty(t, store.Current().Denylist())
}

func TestRuleStoreEditNormalizes(t *testing.T) {
	store := newTestStore(t, nil, nil, nil)

	require.NoError(t, store.AddAllow("Example.COM."))
	require.Equal(t, []string{"example.com"}, store.Current().Allowlist())
	require.NoError(t, store.RemoveAllow("EXAMPLE.com"))
	require.Empty(t, store.Current().Allowlist())
}

func TestRuleStoreRejectsMalformed(t *testing.T) {
	store := newTestStore(t, nil, nil, nil)
	before := store.Current()

	require.Error(t, store.AddDeny("bad domain"))
	require.Error(t, store.AddAllow(""))
	// One bad entry rejects the whole replacement
	require.Error(t, store.SetAllowlist([]string{"good.test", "also bad"}))

	require.Same(t, before, store.Current())
}

func TestRuleStoreReplaceTier(t *testing.T) {
	store := newTestStore(t, []string{"keep.test"}, []string{"old.test"}, nil)

	require.NoError(t, store.SetAllowlist([]string{"a.test", "b.test"}))
	rs := store.Current()
	require.Equal(t, []string{"a.test", "b.test"}, rs.Allowlist())
	require.Equal(t, []string{"keep.test"}, rs.Denylist())
}

func TestRuleStoreConcurrentWriters(t *testing.T) {
	// A scheduled refresh racing management edits: both kinds of writer
	// touch disjoint tiers, neither change may be lost.
	store := newTestStore(t, nil, nil, nil)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			store.InstallBlocklist(map[string]struct{}{fmt.Sprintf("block%d.test", i): {}})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_ = store.AddDeny(fmt.Sprintf("deny%d.test", i))
		}
	}()
	wg.Wait()

	rs := store.Current()
	require.Equal(t, n, len(rs.Denylist()))
	require.Equal(t, 1, rs.BlocklistSize())
	require.Equal(t, uint64(2*n+1), rs.Version())
}
