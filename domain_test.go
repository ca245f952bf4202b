package sinkhole

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"Example.COM.", "example.com"},
		{"  sub.example.com\t", "sub.example.com"},
		{"_dmarc.example.com", "_dmarc.example.com"},
		{"xn--bcher-kva.de", "xn--bcher-kva.de"},
		{"bücher.de", "xn--bcher-kva.de"},
	}
	for _, test := range tests {
		got, err := NormalizeDomain(test.in)
		require.NoError(t, err, "domain: %s", test.in)
		require.Equal(t, test.want, got)
	}
}

func TestNormalizeDomainError(t *testing.T) {
	tests := []string{
		"",
		".",
		"   ",
		"exa mple.com",
		"a..b",
		"bad!char.com",
		strings.Repeat("a", 64) + ".com", // label too long
	}
	for _, test := range tests {
		_, err := NormalizeDomain(test)
		require.Error(t, err, "domain: %q", test)
	}
}

func TestCanonicalName(t *testing.T) {
	require.Equal(t, "www.example.com", canonicalName("WWW.Example.COM."))
	require.Equal(t, "example.com", canonicalName("example.com"))
}

func TestParentDomain(t *testing.T) {
	require.Equal(t, "b.c", parentDomain("a.b.c"))
	require.Equal(t, "c", parentDomain("b.c"))
	require.Equal(t, "", parentDomain("c"))
}
