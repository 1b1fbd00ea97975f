package embed

import (
	"net/url"
	"testing"
)

type stubProvider struct {
	name      string
	host      string
	embedURL  string
	err       error
	panics    bool
	resolved  int
	consulted int
}

func (p *stubProvider) Name() string {
	return p.name
}

func (p *stubProvider) Matches(u *url.URL) bool {
	p.consulted++
	return u.Hostname() == p.host
}

func (p *stubProvider) Resolve(rawURL string) (string, error) {
	p.resolved++
	if p.panics {
		panic("malformed input")
	}
	return p.embedURL, p.err
}

func TestRegistryLookupFirstMatchWins(t *testing.T) {
	a := &stubProvider{name: "a", host: "media.example.fm"}
	b := &stubProvider{name: "b", host: "media.example.fm", embedURL: "https://b.example.fm/e/1"}
	registry := NewRegistry(a, b)

	provider := registry.Lookup("https://media.example.fm/show/ep1.mp3")
	if provider == nil {
		t.Fatal("Expected a provider")
	}
	if provider.Name() != "a" {
		t.Errorf("Expected provider 'a', got '%s'", provider.Name())
	}
	if b.consulted != 0 {
		t.Errorf("Expected provider 'b' never to be consulted, got %d calls", b.consulted)
	}
}

func TestRegistryLookupNoMatch(t *testing.T) {
	registry := NewRegistry(Transistor(), Buzzsprout())

	if provider := registry.Lookup("https://example.com/audio.mp3"); provider != nil {
		t.Errorf("Expected no provider, got '%s'", provider.Name())
	}
	if provider := registry.Lookup("://not a url"); provider != nil {
		t.Errorf("Expected no provider for malformed URL, got '%s'", provider.Name())
	}
}

func TestRegistryNames(t *testing.T) {
	registry := NewRegistry(Buzzsprout(), Transistor())

	names := registry.Names()
	if len(names) != 2 || names[0] != "buzzsprout" || names[1] != "transistor" {
		t.Errorf("Expected [buzzsprout transistor], got %v", names)
	}
	if registry.Len() != 2 {
		t.Errorf("Expected 2 providers, got %d", registry.Len())
	}
}

func TestTransistorResolve(t *testing.T) {
	p := Transistor()

	u, _ := url.Parse("https://media.transistor.fm/a1b2c3/episode-12.mp3")
	if !p.Matches(u) {
		t.Fatal("Expected Transistor to match media.transistor.fm")
	}

	got, err := p.Resolve(u.String())
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://share.transistor.fm/e/a1b2c3" {
		t.Errorf("Expected share URL, got '%s'", got)
	}

	got, err = p.Resolve("https://media.transistor.fm/a1b2c3")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("Expected no embed URL for URL without episode file, got '%s'", got)
	}
}

func TestBuzzsproutResolve(t *testing.T) {
	p := Buzzsprout()

	u, _ := url.Parse("https://www.buzzsprout.com/156239/episodes/9876543-pilot.mp3")
	if !p.Matches(u) {
		t.Fatal("Expected Buzzsprout to match www.buzzsprout.com")
	}

	got, err := p.Resolve(u.String())
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://www.buzzsprout.com/156239/9876543?iframe=true" {
		t.Errorf("Expected iframe URL, got '%s'", got)
	}

	bare, _ := url.Parse("https://buzzsprout.com/156239/9876543.mp3")
	if p.Matches(bare) {
		t.Error("Expected wildcard domain not to match the bare domain")
	}
}

func TestPatternProviderRejectsRelativeEmbedURL(t *testing.T) {
	p, err := NewPatternProvider("broken", []string{"media.example.fm"}, `^https?://media\.example\.fm/(\w+)`, "/e/${1}")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Resolve("https://media.example.fm/show"); err == nil {
		t.Error("Expected error for relative embed URL")
	}
}

func TestNewPatternProviderValidation(t *testing.T) {
	if _, err := NewPatternProvider("x", nil, `.*`, "https://example.com"); err == nil {
		t.Error("Expected error for missing domains")
	}
	if _, err := NewPatternProvider("x", []string{"example.com"}, `(`, "https://example.com"); err == nil {
		t.Error("Expected error for invalid pattern")
	}
	if _, err := NewPatternProvider("x", []string{"example.com"}, `.*`, ""); err == nil {
		t.Error("Expected error for missing embed URL")
	}
}
