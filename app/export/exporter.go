// Package export wires feed retrieval, embed resolution and document
// assembly together for the command-line tool and the HTTP service.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/hellosteadman/ghostexporter/app/cfg"
	"github.com/hellosteadman/ghostexporter/app/embed"
	apperrors "github.com/hellosteadman/ghostexporter/app/errors"
	"github.com/hellosteadman/ghostexporter/app/feed"
	"github.com/hellosteadman/ghostexporter/app/ghost"
)

type Exporter struct {
	source   *feed.Source
	registry *embed.Registry
	resolver *embed.Resolver
	workers  int
	now      func() time.Time
}

type Option func(*Exporter)

func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// New builds an Exporter from configuration. Plugins are loaded once here and
// the resulting registry is never modified afterwards.
func New(c *cfg.Cfg, httpClient *http.Client, opts ...Option) (*Exporter, error) {
	plugins := c.Plugins
	if len(plugins) == 0 {
		plugins = embed.DefaultPlugins
	}

	registry, err := embed.NewPluginLoader(c.PluginsDir).Run(plugins)
	if err != nil {
		return nil, fmt.Errorf("failed to load plugins: %w", err)
	}

	domains := slices.Clone(embed.DefaultTrackingDomains)
	for _, domain := range c.TrackingDomains {
		domains = append(domains, embed.DomainPattern(domain))
	}

	tracking := embed.NewTrackingResolver(httpClient,
		embed.WithTrackingDomains(domains),
		embed.WithMaxHops(c.MaxHops),
		embed.WithTimeout(c.Timeout),
		embed.WithUserAgent(c.UserAgent),
		embed.WithRateLimit(rate.Limit(c.RequestRate), 1),
		embed.WithCache(c.CacheTTL),
	)

	source := feed.NewSource(httpClient,
		feed.WithUserAgent(c.UserAgent),
		feed.WithTimeout(c.FeedTimeout),
		feed.WithCache(c.CacheTTL),
	)

	e := &Exporter{
		source:   source,
		registry: registry,
		resolver: embed.NewResolver(tracking, registry),
		workers:  c.Workers,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	slog.Info("Exporter ready", "providers", registry.Names(), "tracking_domains", len(domains), "workers", e.workers)

	return e, nil
}

// Providers lists the enabled embed providers in priority order.
func (e *Exporter) Providers() []string {
	return e.registry.Names()
}

// Write converts the feed at feedURL into a Ghost document of the given
// version and writes it to w. Nothing is written if any step fails.
func (e *Exporter) Write(ctx context.Context, w io.Writer, feedURL, version string) error {
	if err := ValidateFeedURL(feedURL); err != nil {
		return err
	}

	transformer, err := ghost.ForVersion(version, e.resolver)
	if err != nil {
		return err
	}

	assembler := ghost.NewAssembler(transformer,
		ghost.WithWorkers(e.workers),
		ghost.WithClock(e.now),
	)

	slog.Info("Exporting feed", "url", feedURL, "version", version)

	return assembler.Write(ctx, w, e.source.Items(feedURL))
}

// ValidateFeedURL checks that feedURL is an absolute http or https URL.
func ValidateFeedURL(feedURL string) error {
	if feedURL == "" {
		return &apperrors.ValidationError{Field: "url", Message: "feed URL is required"}
	}

	u, err := url.Parse(feedURL)
	if err != nil {
		return &apperrors.ValidationError{Field: "url", Message: fmt.Sprintf("malformed URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &apperrors.ValidationError{Field: "url", Message: fmt.Sprintf("only http and https URLs are allowed, got %q", u.Scheme)}
	}
	if u.Host == "" {
		return &apperrors.ValidationError{Field: "url", Message: "URL has no host"}
	}

	return nil
}
