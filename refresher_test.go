package sinkhole

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testLoader func() ([]string, error)

func (l testLoader) Load() ([]string, error) { return l() }

func TestRefresherInstallsRules(t *testing.T) {
	store := newTestStore(t, []string{"denied.test"}, nil, []string{"seed.test"})
	loader := testLoader(func() ([]string, error) {
		return []string{"0.0.0.0 bad.com", "good.net"}, nil
	})

	r := NewRefresher(store, loader, time.Hour)
	r.refresh()

	rs := store.Current()
	require.Equal(t, Blocked, rs.Decide("bad.com"))
	require.Equal(t, Blocked, rs.Decide("good.net"))
	require.Equal(t, Passed, rs.Decide("seed.test")) // full replacement
	require.Equal(t, Blocked, rs.Decide("denied.test"))

	status := r.Status()
	require.Empty(t, status.LastError)
	require.Equal(t, 2, status.Rules)
	require.False(t, status.LastSuccess.IsZero())
}

func TestRefresherKeepsRulesOnFailure(t *testing.T) {
	store := newTestStore(t, nil, nil, []string{"existing.test"})
	before := store.Current()
	loader := testLoader(func() ([]string, error) {
		return nil, errors.New("connection refused")
	})

	r := NewRefresher(store, loader, time.Hour)
	r.refresh()

	require.Same(t, before, store.Current())
	require.Equal(t, Blocked, store.Current().Decide("existing.test"))
	require.Contains(t, r.Status().LastError, "connection refused")
}

func TestRefresherRejectsEmptyList(t *testing.T) {
	// An empty or unparseable response must never blank out protection
	store := newTestStore(t, nil, nil, []string{"existing.test"})
	before := store.Current()
	loader := testLoader(func() ([]string, error) {
		return []string{"# only comments", ""}, nil
	})

	r := NewRefresher(store, loader, time.Hour)
	r.refresh()

	require.Same(t, before, store.Current())
	require.NotEmpty(t, r.Status().LastError)
}

func TestRefresherKick(t *testing.T) {
	r := NewRefresher(nil, nil, time.Hour)
	// Kick never blocks, even when one refresh is already pending
	r.Kick()
	r.Kick()
	r.Kick()
	select {
	case <-r.kick:
	default:
		t.Fatal("expected a pending kick")
	}
}
