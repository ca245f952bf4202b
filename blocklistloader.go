package sinkhole

import (
	"net"
	"strings"
)

// BlocklistLoader returns raw blocklist lines that are parsed into a domain
// set with ParseRules.
type BlocklistLoader interface {
	Load() ([]string, error)
}

// ParseRules turns raw blocklist lines into a domain set. Two line formats
// are understood: a bare domain per line, and hosts-file entries of the form
// "0.0.0.0 example.com # comment". Blank lines, comment lines and lines that
// don't normalize to a valid domain are skipped. Duplicates collapse through
// set semantics.
func ParseRules(lines []string) map[string]struct{} {
	rules := make(map[string]struct{})
	for _, line := range lines {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)

		var candidate string
		switch {
		case len(fields) == 0:
			continue
		case net.ParseIP(fields[0]) != nil:
			// Hosts-file entry, the domain is the second field
			if len(fields) < 2 {
				continue
			}
			candidate = fields[1]
		case len(fields) == 1:
			candidate = fields[0]
		default:
			// Multiple fields but not a hosts entry, not a rule
			continue
		}
		name, err := NormalizeDomain(candidate)
		if err != nil {
			continue
		}
		rules[name] = struct{}{}
	}
	return rules
}
