package embed

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/hellosteadman/ghostexporter/app/errors"
)

type stubStripper struct {
	canonical string
	err       error
	calls     int
}

func (s *stubStripper) Strip(ctx context.Context, rawURL string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.canonical != "" {
		return s.canonical, nil
	}
	return rawURL, nil
}

func TestResolverHTML(t *testing.T) {
	provider := &stubProvider{name: "examplefm", host: "media.example.fm", embedURL: "https://share.example.fm/e/show"}
	resolver := NewResolver(&stubStripper{}, NewRegistry(provider))

	html, err := resolver.HTML(context.Background(), "https://media.example.fm/show/ep1.mp3")
	if err != nil {
		t.Fatal(err)
	}

	expected := `<iframe src="https://share.example.fm/e/show" width="100%" height="180" frameborder="0" scrolling="no" seamless></iframe>`
	if html != expected {
		t.Errorf("Expected iframe\n%s\ngot\n%s", expected, html)
	}
}

func TestResolverHTMLUsesCanonicalURL(t *testing.T) {
	stripper := &stubStripper{canonical: "https://media.transistor.fm/abc/ep.mp3"}
	resolver := NewResolver(stripper, NewRegistry(Transistor()))

	html, err := resolver.HTML(context.Background(), "https://pdst.fm/e/media.transistor.fm/abc/ep.mp3")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(html, `src="https://share.transistor.fm/e/abc"`) {
		t.Errorf("Expected Transistor embed, got '%s'", html)
	}
}

func TestResolverHTMLMatchWithoutResolveDoesNotFallThrough(t *testing.T) {
	a := &stubProvider{name: "a", host: "media.example.fm"}
	b := &stubProvider{name: "b", host: "media.example.fm", embedURL: "https://b.example.fm/e/1"}
	resolver := NewResolver(&stubStripper{}, NewRegistry(a, b))

	html, err := resolver.HTML(context.Background(), "https://media.example.fm/show/ep1.mp3")
	if err != nil {
		t.Fatal(err)
	}

	if html != "" {
		t.Errorf("Expected no embed, got '%s'", html)
	}
	if a.resolved != 1 {
		t.Errorf("Expected provider 'a' to resolve once, got %d", a.resolved)
	}
	if b.consulted != 0 || b.resolved != 0 {
		t.Error("Expected provider 'b' never to be consulted")
	}
}

func TestResolverHTMLProviderFailureDegrades(t *testing.T) {
	failing := &stubProvider{name: "failing", host: "media.example.fm", err: errors.New("bad input")}
	resolver := NewResolver(&stubStripper{}, NewRegistry(failing))

	html, err := resolver.HTML(context.Background(), "https://media.example.fm/x.mp3")
	if err != nil || html != "" {
		t.Errorf("Expected provider error to degrade to no embed, got '%s', %v", html, err)
	}

	panicking := &stubProvider{name: "panicking", host: "media.example.fm", panics: true}
	resolver = NewResolver(&stubStripper{}, NewRegistry(panicking))

	html, err = resolver.HTML(context.Background(), "https://media.example.fm/x.mp3")
	if err != nil || html != "" {
		t.Errorf("Expected provider panic to degrade to no embed, got '%s', %v", html, err)
	}
}

func TestResolverHTMLPropagatesTrackingErrors(t *testing.T) {
	stripper := &stubStripper{err: &apperrors.TransportError{URL: "https://chrt.fm/track/x", StatusCode: 500}}
	resolver := NewResolver(stripper, NewRegistry(Transistor()))

	_, err := resolver.HTML(context.Background(), "https://chrt.fm/track/x")
	if !apperrors.IsTransport(err) {
		t.Errorf("Expected TransportError, got %v", err)
	}
}

func TestResolverHTMLEmptyEnclosure(t *testing.T) {
	stripper := &stubStripper{}
	resolver := NewResolver(stripper, NewRegistry(Transistor()))

	html, err := resolver.HTML(context.Background(), "")
	if err != nil || html != "" {
		t.Errorf("Expected empty result, got '%s', %v", html, err)
	}
	if stripper.calls != 0 {
		t.Errorf("Expected no tracking resolution for empty enclosure, got %d", stripper.calls)
	}
}
