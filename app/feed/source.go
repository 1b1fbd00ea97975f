package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"

	apperrors "github.com/hellosteadman/ghostexporter/app/errors"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "ghostexporter"
)

// Source fetches a podcast RSS feed and turns its entries into Items.
type Source struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
	timeout      time.Duration
	cache        *cache.Cache
	now          func() time.Time
}

type SourceOption func(*Source)

func WithUserAgent(userAgent string) SourceOption {
	return func(s *Source) {
		if userAgent != "" {
			s.userAgent = userAgent
		}
	}
}

func WithTimeout(timeout time.Duration) SourceOption {
	return func(s *Source) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithCache keeps fetched feed bodies for ttl.
func WithCache(ttl time.Duration) SourceOption {
	return func(s *Source) {
		if ttl > 0 {
			s.cache = cache.New(ttl, 2*ttl)
		}
	}
}

func WithClock(now func() time.Time) SourceOption {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSource(httpClient *http.Client, opts ...SourceOption) *Source {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	s := &Source{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    DefaultUserAgent,
		timeout:      DefaultTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fetch downloads the raw feed document.
func (s *Source) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	if s.cache != nil {
		if cached, found := s.cache.Get(feedURL); found {
			slog.Debug("Feed served from cache", "url", feedURL)
			return cached.([]byte), nil
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &apperrors.TransportError{URL: feedURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.TransportError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.TransportError{URL: feedURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.TransportError{URL: feedURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if s.cache != nil {
		s.cache.SetDefault(feedURL, data)
	}

	return data, nil
}

// All fetches and parses the feed, returning its items in ascending
// publication order.
func (s *Source) All(ctx context.Context, feedURL string) ([]*Item, error) {
	data, err := s.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	return s.Parse(data)
}

// Parse builds items from a raw feed document.
func (s *Source) Parse(data []byte) ([]*Item, error) {
	parsed, err := s.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	now := s.now()
	items := make([]*Item, 0, len(parsed.Items))

	for _, entry := range parsed.Items {
		item, err := NewItem(fieldsFromEntry(entry), now)
		if err != nil {
			return nil, fmt.Errorf("invalid feed entry %q: %w", cmp.Or(entry.GUID, entry.Title), err)
		}
		items = append(items, item)
	}

	slices.SortStableFunc(items, func(a, b *Item) int {
		return a.Published.Compare(b.Published)
	})

	slog.Debug("Feed parsed", "title", parsed.Title, "items", len(items))

	return items, nil
}

// Items returns a restartable sequence over the feed at feedURL. Every pass
// fetches the feed again unless a cache is configured.
func (s *Source) Items(feedURL string) Items {
	return func(ctx context.Context) iter.Seq2[*Item, error] {
		return func(yield func(*Item, error) bool) {
			items, err := s.All(ctx, feedURL)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

func fieldsFromEntry(entry *gofeed.Item) Fields {
	fields := Fields{
		FieldTitle:       cmp.Or(itunesTitle(entry), entry.Title),
		FieldSummary:     entry.Description,
		FieldDescription: cmp.Or(entry.Content, entry.Description),
	}

	if entry.PublishedParsed != nil {
		fields[FieldPublished] = *entry.PublishedParsed
	}

	if author := extractAuthor(entry); author != nil {
		fields[FieldAuthor] = author
	}

	if len(entry.Enclosures) > 0 && entry.Enclosures[0] != nil && entry.Enclosures[0].URL != "" {
		fields[FieldEnclosure] = entry.Enclosures[0].URL
	}

	return fields
}

func itunesTitle(entry *gofeed.Item) string {
	values := entry.Extensions["itunes"]["title"]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

func extractAuthor(entry *gofeed.Item) *Author {
	person := entry.Author
	if len(entry.Authors) > 0 {
		person = entry.Authors[0]
	}
	if person == nil {
		return nil
	}

	name := strings.TrimSpace(person.Name)
	email := strings.TrimSpace(person.Email)
	if name == "" && email == "" {
		return nil
	}

	return &Author{Name: name, Email: email}
}
