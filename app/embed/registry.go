package embed

import "net/url"

// Registry is an ordered list of providers. Registration order is priority:
// the first provider claiming a URL's host owns that URL.
type Registry struct {
	providers []Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// Lookup returns the first provider whose Matches accepts rawURL, or nil.
// Later providers are never consulted once one matches, even if the matching
// provider cannot resolve the URL.
func (r *Registry) Lookup(rawURL string) Provider {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	for _, p := range r.providers {
		if p.Matches(u) {
			return p
		}
	}

	return nil
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

func (r *Registry) Len() int {
	return len(r.providers)
}
