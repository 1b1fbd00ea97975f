package embed

import "strings"

// DomainPattern is a host name, optionally starting with a "*." wildcard that
// stands for exactly one subdomain label.
type DomainPattern string

// Match reports whether host matches the pattern. Hosts are compared
// case-insensitively and must not carry a port.
func (p DomainPattern) Match(host string) bool {
	host = normalizeHost(host)
	pattern := normalizeHost(string(p))

	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		label, rest, found := strings.Cut(host, ".")
		return found && label != "" && rest == suffix
	}

	return host == pattern
}

// TrackingDomains is a set of tracking relay host patterns. Unlike provider
// domains, a relay pattern also matches with a leading "www." and a wildcard
// label is optional, so "*.podtrac.com" matches "podtrac.com" too.
type TrackingDomains []DomainPattern

// DefaultTrackingDomains lists the analytics relays commonly prefixed to
// podcast enclosure URLs.
var DefaultTrackingDomains = TrackingDomains{
	"chrt.fm",
	"chtbl.com",
	"claritaspod.com",
	"*.gum.fm",
	"mgln.ai",
	"op3.dev",
	"p.podderapp.com",
	"*.podtrac.com",
	"pdcds.co",
	"pdcn.co",
	"pdrl.fm",
	"pdst.fm",
	"prfx.byspotify.com",
	"pscrb.fm",
	"swap.fm",
}

func (d TrackingDomains) Match(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	bare := strings.TrimPrefix(host, "www.")

	for _, pattern := range d {
		if pattern.Match(host) || pattern.Match(bare) {
			return true
		}
		if suffix, ok := strings.CutPrefix(normalizeHost(string(pattern)), "*."); ok && bare == suffix {
			return true
		}
	}

	return false
}

func normalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
}
