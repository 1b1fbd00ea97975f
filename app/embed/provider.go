package embed

import (
	"fmt"
	"net/url"
	"regexp"
)

// Provider recognises the media URLs of one hosting platform and rewrites them
// into the platform's player URL.
type Provider interface {
	Name() string
	// Matches reports whether the provider claims the URL's host.
	Matches(u *url.URL) bool
	// Resolve returns the player URL, or "" when the URL carries nothing the
	// provider can embed.
	Resolve(rawURL string) (string, error)
}

// PatternProvider is a Provider driven by a list of domain patterns, a regular
// expression over the enclosure URL and an embed URL template. The template
// may reference capture groups as $1 or ${name}.
type PatternProvider struct {
	name     string
	domains  []DomainPattern
	pattern  *regexp.Regexp
	template string
}

var _ Provider = (*PatternProvider)(nil)

func NewPatternProvider(name string, domains []string, pattern, embedURL string) (*PatternProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("provider name is required")
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("provider %s: at least one domain is required", name)
	}
	if pattern == "" {
		return nil, fmt.Errorf("provider %s: pattern is required", name)
	}
	if embedURL == "" {
		return nil, fmt.Errorf("provider %s: embed URL is required", name)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("provider %s: invalid pattern: %w", name, err)
	}

	patterns := make([]DomainPattern, 0, len(domains))
	for _, domain := range domains {
		if domain == "" {
			return nil, fmt.Errorf("provider %s: empty domain", name)
		}
		patterns = append(patterns, DomainPattern(domain))
	}

	return &PatternProvider{
		name:     name,
		domains:  patterns,
		pattern:  re,
		template: embedURL,
	}, nil
}

func (p *PatternProvider) Name() string {
	return p.name
}

func (p *PatternProvider) Matches(u *url.URL) bool {
	if u == nil {
		return false
	}

	host := u.Hostname()
	for _, domain := range p.domains {
		if domain.Match(host) {
			return true
		}
	}

	return false
}

func (p *PatternProvider) Resolve(rawURL string) (string, error) {
	match := p.pattern.FindStringSubmatchIndex(rawURL)
	if match == nil {
		return "", nil
	}

	embedURL := string(p.pattern.ExpandString(nil, p.template, rawURL, match))

	u, err := url.Parse(embedURL)
	if err != nil {
		return "", fmt.Errorf("invalid embed URL %q: %w", embedURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("embed URL %q is not absolute", embedURL)
	}

	return embedURL, nil
}
