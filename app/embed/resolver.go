package embed

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	apperrors "github.com/hellosteadman/ghostexporter/app/errors"
)

const iframeTemplate = `<iframe src="%s" width="100%%" height="180" frameborder="0" scrolling="no" seamless></iframe>`

// Stripper removes tracking relays from an enclosure URL.
type Stripper interface {
	Strip(ctx context.Context, rawURL string) (string, error)
}

var _ Stripper = (*TrackingResolver)(nil)

// Resolver produces player markup for enclosure URLs.
type Resolver struct {
	tracking Stripper
	registry *Registry
}

func NewResolver(tracking Stripper, registry *Registry) *Resolver {
	return &Resolver{
		tracking: tracking,
		registry: registry,
	}
}

// HTML returns an iframe embedding the player for enclosure, or "" when no
// provider can embed it. Errors come from tracking resolution only; provider
// failures degrade to "".
func (r *Resolver) HTML(ctx context.Context, enclosure string) (string, error) {
	if strings.TrimSpace(enclosure) == "" {
		return "", nil
	}

	canonical, err := r.tracking.Strip(ctx, enclosure)
	if err != nil {
		return "", fmt.Errorf("failed to strip tracking from %s: %w", enclosure, err)
	}

	provider := r.registry.Lookup(canonical)
	if provider == nil {
		slog.Debug("No embed provider for enclosure", "url", canonical)
		return "", nil
	}

	embedURL, err := r.resolve(provider, canonical)
	if err != nil {
		slog.Warn("Embed provider failed", "provider", provider.Name(), "url", canonical, "error", err)
		return "", nil
	}
	if embedURL == "" {
		slog.Debug("Embed provider matched without an embed URL", "provider", provider.Name(), "url", canonical)
		return "", nil
	}

	return fmt.Sprintf(iframeTemplate, html.EscapeString(embedURL)), nil
}

func (r *Resolver) resolve(provider Provider, canonical string) (embedURL string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			embedURL = ""
			err = &apperrors.ProviderError{Provider: provider.Name(), URL: canonical, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	embedURL, err = provider.Resolve(canonical)
	if err != nil {
		return "", &apperrors.ProviderError{Provider: provider.Name(), URL: canonical, Err: err}
	}

	return embedURL, nil
}
