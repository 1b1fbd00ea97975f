package embed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	apperrors "github.com/hellosteadman/ghostexporter/app/errors"
)

const (
	DefaultMaxHops   = 10
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "ghostexporter"
)

// TrackingResolver follows the redirects of tracking relays in front of an
// enclosure URL until it reaches a host that is not a relay.
type TrackingResolver struct {
	httpClient *http.Client
	domains    TrackingDomains
	userAgent  string
	maxHops    int
	timeout    time.Duration
	limiter    *rate.Limiter
	cache      *cache.Cache
}

type TrackingOption func(*TrackingResolver)

func WithTrackingDomains(domains TrackingDomains) TrackingOption {
	return func(r *TrackingResolver) {
		r.domains = domains
	}
}

// WithMaxHops caps the number of HEAD requests issued for one URL.
func WithMaxHops(maxHops int) TrackingOption {
	return func(r *TrackingResolver) {
		if maxHops > 0 {
			r.maxHops = maxHops
		}
	}
}

// WithTimeout bounds each HEAD request.
func WithTimeout(timeout time.Duration) TrackingOption {
	return func(r *TrackingResolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

func WithUserAgent(userAgent string) TrackingOption {
	return func(r *TrackingResolver) {
		if userAgent != "" {
			r.userAgent = userAgent
		}
	}
}

// WithRateLimit spaces out requests to relays. A zero limit disables it.
func WithRateLimit(limit rate.Limit, burst int) TrackingOption {
	return func(r *TrackingResolver) {
		if limit > 0 {
			r.limiter = rate.NewLimiter(limit, max(burst, 1))
		}
	}
}

// WithCache remembers resolved URLs for ttl. Intended for long-running
// processes that convert the same feed repeatedly.
func WithCache(ttl time.Duration) TrackingOption {
	return func(r *TrackingResolver) {
		if ttl > 0 {
			r.cache = cache.New(ttl, 2*ttl)
		}
	}
}

func NewTrackingResolver(httpClient *http.Client, opts ...TrackingOption) *TrackingResolver {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	client := *httpClient
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	r := &TrackingResolver{
		httpClient: &client,
		domains:    DefaultTrackingDomains,
		userAgent:  DefaultUserAgent,
		maxHops:    DefaultMaxHops,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// IsTracking reports whether rawURL points at a tracking relay.
func (r *TrackingResolver) IsTracking(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return r.domains.Match(u.Hostname())
}

// Strip returns the URL the tracking relays in front of rawURL redirect to.
// URLs that are not on a relay are returned unchanged without any request.
func (r *TrackingResolver) Strip(ctx context.Context, rawURL string) (string, error) {
	if r.cache != nil {
		if cached, found := r.cache.Get(rawURL); found {
			return cached.(string), nil
		}
	}

	current := rawURL
	hops := 0

	for r.IsTracking(current) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if hops >= r.maxHops {
			return "", &apperrors.ResolutionError{URL: rawURL, Hops: hops, Message: "redirect limit exceeded"}
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		hops++
		next, redirected, err := r.hop(ctx, current)
		if err != nil {
			return "", err
		}
		if !redirected {
			break
		}

		slog.Debug("Tracking redirect followed", "from", current, "to", next, "hop", hops)
		current = next
	}

	if r.cache != nil {
		r.cache.SetDefault(rawURL, current)
	}

	return current, nil
}

func (r *TrackingResolver) hop(ctx context.Context, current string) (string, bool, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodHead, current, nil)
	if err != nil {
		return "", false, &apperrors.TransportError{URL: current, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", false, &apperrors.TransportError{URL: current, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound:
		location := resp.Header.Get("Location")
		if location == "" {
			return "", false, &apperrors.ResolutionError{URL: current, Message: "redirect without Location header"}
		}

		next, err := req.URL.Parse(location)
		if err != nil {
			return "", false, &apperrors.ResolutionError{URL: current, Message: fmt.Sprintf("invalid Location %q", location)}
		}

		return next.String(), true, nil

	case resp.StatusCode >= http.StatusBadRequest:
		return "", false, &apperrors.TransportError{URL: current, StatusCode: resp.StatusCode}
	}

	return current, false, nil
}
