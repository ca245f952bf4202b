package sinkhole

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

const maxDomainLength = 253

// NormalizeDomain converts a raw domain name into the canonical form used in
// rule sets: lowercase ASCII without a trailing dot. Unicode names are mapped
// to their punycode representation. Names that can't appear in a rule, such
// as empty strings or names with invalid characters, are rejected with an
// error. All rule input passes through here, query names do not (they only
// get the cheap canonicalization below and are matched as-is).
func NormalizeDomain(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return "", fmt.Errorf("empty domain")
	}
	name = strings.ToLower(name)
	if !isASCII(name) {
		converted, err := idna.Lookup.ToASCII(name)
		if err != nil {
			return "", fmt.Errorf("invalid domain %q: %v", raw, err)
		}
		return converted, nil
	}
	if len(name) > maxDomainLength {
		return "", fmt.Errorf("domain %q exceeds %d characters", raw, maxDomainLength)
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return "", fmt.Errorf("invalid domain %q: empty label", raw)
		}
		if len(label) > 63 {
			return "", fmt.Errorf("invalid domain %q: label too long", raw)
		}
		for _, c := range label {
			if !validLabelChar(c) {
				return "", fmt.Errorf("invalid domain %q: bad character %q", raw, c)
			}
		}
	}
	return name, nil
}

// Underscore is permitted since service and policy records use it.
func validLabelChar(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// canonicalName lowercases a query name and strips the trailing dot so it can
// be matched against normalized rules. Unlike NormalizeDomain it never fails,
// queries are matched on whatever name they carry.
func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// parentDomain strips the leftmost label, returning the next-wider suffix.
// Returns an empty string once no label boundary is left.
func parentDomain(name string) string {
	i := strings.IndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}
