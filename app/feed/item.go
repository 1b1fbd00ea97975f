package feed

import (
	"cmp"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"net/url"
	"slices"
	"strings"
	"time"

	apperrors "github.com/hellosteadman/ghostexporter/app/errors"
	"github.com/hellosteadman/ghostexporter/app/sanitize"
)

// Item field names accepted by NewItem.
const (
	FieldTitle       = "title"
	FieldSummary     = "summary"
	FieldPublished   = "published"
	FieldDescription = "description"
	FieldAuthor      = "author"
	FieldEnclosure   = "enclosure"
)

var knownFields = map[string]bool{
	FieldTitle:       true,
	FieldSummary:     true,
	FieldPublished:   true,
	FieldDescription: true,
	FieldAuthor:      true,
	FieldEnclosure:   true,
}

// Fields holds the raw values an Item is built from.
type Fields map[string]any

type Author struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Item is a validated feed entry ready for export.
type Item struct {
	ID          string
	Slug        string
	Title       string
	Summary     string
	Description string // sanitized HTML
	Enclosure   string
	Author      *Author
	Published   time.Time
	Created     time.Time
}

// Items produces a fresh, single-pass sequence of items each time it is
// called.
type Items func(ctx context.Context) iter.Seq2[*Item, error]

// NewItem validates fields and builds an Item created at now. The ID is a
// hash of the field values, so identical fields always yield the same ID.
func NewItem(fields Fields, now time.Time) (*Item, error) {
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if !knownFields[key] {
			return nil, &apperrors.ValidationError{Field: key, Message: "unrecognized field"}
		}
	}

	title, err := stringField(fields, FieldTitle, true)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, &apperrors.ValidationError{Field: FieldTitle, Message: "title is required"}
	}

	summary, err := stringField(fields, FieldSummary, true)
	if err != nil {
		return nil, err
	}

	value, ok := fields[FieldPublished]
	if !ok {
		return nil, &apperrors.ValidationError{Field: FieldPublished, Message: "published is required"}
	}
	published, ok := value.(time.Time)
	if !ok || published.IsZero() {
		return nil, &apperrors.ValidationError{Field: FieldPublished, Message: "published must be a time"}
	}

	description, err := stringField(fields, FieldDescription, false)
	if err != nil {
		return nil, err
	}

	enclosure, err := stringField(fields, FieldEnclosure, false)
	if err != nil {
		return nil, err
	}

	author, err := authorField(fields)
	if err != nil {
		return nil, err
	}

	id, err := Hash(fields)
	if err != nil {
		return nil, err
	}

	return &Item{
		ID:          id,
		Slug:        cmp.Or(Slugify(title), id),
		Title:       title,
		Summary:     summary,
		Description: sanitize.HTML(description),
		Enclosure:   enclosure,
		Author:      author,
		Published:   published,
		Created:     now,
	}, nil
}

// Hash returns the MD5 hex digest of the canonical form of fields: sorted
// key=value pairs, both query-escaped and joined by "&".
func Hash(fields Fields) (string, error) {
	parts := make([]string, 0, len(fields))

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		value, err := canonicalValue(fields[key])
		if err != nil {
			return "", &apperrors.ValidationError{Field: key, Message: err.Error()}
		}
		parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}

	sum := md5.Sum([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(sum[:]), nil
}

func canonicalValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	case Author, *Author:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

func stringField(fields Fields, key string, required bool) (string, error) {
	value, ok := fields[key]
	if !ok || value == nil {
		if required {
			return "", &apperrors.ValidationError{Field: key, Message: key + " is required"}
		}
		return "", nil
	}

	s, ok := value.(string)
	if !ok {
		return "", &apperrors.ValidationError{Field: key, Message: key + " must be a string"}
	}
	return s, nil
}

func authorField(fields Fields) (*Author, error) {
	switch v := fields[FieldAuthor].(type) {
	case nil:
		return nil, nil
	case Author:
		return &v, nil
	case *Author:
		return v, nil
	default:
		return nil, &apperrors.ValidationError{Field: FieldAuthor, Message: "author must be an Author"}
	}
}

// Slice returns an Items over already built items.
func Slice(items ...*Item) Items {
	return func(ctx context.Context) iter.Seq2[*Item, error] {
		return func(yield func(*Item, error) bool) {
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// FromFields returns an Items that builds each item as it is pulled.
func FromFields(now func() time.Time, fields ...Fields) Items {
	return func(ctx context.Context) iter.Seq2[*Item, error] {
		return func(yield func(*Item, error) bool) {
			for _, f := range fields {
				item, err := NewItem(f, now())
				if !yield(item, err) || err != nil {
					return
				}
			}
		}
	}
}
