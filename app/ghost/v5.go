package ghost

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/hellosteadman/ghostexporter/app/errors"
	"github.com/hellosteadman/ghostexporter/app/feed"
)

const (
	V5             = "5"
	v5ExportFormat = "5.125.0-0-g09f7924d"
	defaultAuthor  = "1"
)

// Embedder renders player markup for an enclosure URL.
type Embedder interface {
	HTML(ctx context.Context, enclosure string) (string, error)
}

// Transformer converts items into the records of one document version.
type Transformer interface {
	ExportVersion() string
	Transform(ctx context.Context, item *feed.Item) (Contribution, error)
}

// ForVersion returns the transformer for a Ghost document version.
func ForVersion(version string, embeds Embedder) (Transformer, error) {
	switch version {
	case V5:
		return NewV5Transformer(embeds), nil
	default:
		return nil, &apperrors.ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported document version %q", version),
		}
	}
}

// Versions lists the supported document versions.
func Versions() []string {
	return []string{V5}
}

type Post struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	HTML        string    `json:"html"`
	Lexical     string    `json:"lexical"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Visibility  string    `json:"visibility"`
	CreatedAt   Timestamp `json:"created_at"`
	PublishedAt Timestamp `json:"published_at"`
}

type PostAuthor struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
}

type lexicalNode struct {
	Type    string `json:"type"`
	HTML    string `json:"html"`
	Version int    `json:"version"`
}

type lexicalRoot struct {
	Children []lexicalNode `json:"children"`
	Type     string        `json:"type"`
}

type lexicalDocument struct {
	Root lexicalRoot `json:"root"`
}

// V5Transformer produces Ghost 5 posts.
type V5Transformer struct {
	embeds Embedder
}

// NewV5Transformer returns a transformer that embeds players via embeds. A
// nil embeds renders descriptions only.
func NewV5Transformer(embeds Embedder) *V5Transformer {
	return &V5Transformer{embeds: embeds}
}

func (t *V5Transformer) ExportVersion() string {
	return v5ExportFormat
}

// Render returns the post body: the player embed, if any, followed by the
// item description.
func (t *V5Transformer) Render(ctx context.Context, item *feed.Item) (string, error) {
	var parts []string

	if t.embeds != nil {
		iframe, err := t.embeds.HTML(ctx, item.Enclosure)
		if err != nil {
			return "", err
		}
		if iframe != "" {
			parts = append(parts, iframe)
		}
	}

	parts = append(parts, item.Description)

	return strings.Join(parts, "\n\n"), nil
}

func (t *V5Transformer) Transform(ctx context.Context, item *feed.Item) (Contribution, error) {
	body, err := t.Render(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to render %q: %w", item.Title, err)
	}

	lexical, err := marshal(lexicalDocument{
		Root: lexicalRoot{
			Children: []lexicalNode{{Type: "html", HTML: body, Version: 1}},
			Type:     "root",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode lexical for %q: %w", item.Title, err)
	}

	post := Post{
		ID:          item.ID,
		Slug:        item.Slug,
		Title:       item.Title,
		HTML:        body,
		Lexical:     string(lexical),
		Type:        "post",
		Status:      "published",
		Visibility:  "public",
		CreatedAt:   Timestamp(item.Created),
		PublishedAt: Timestamp(item.Published),
	}

	return Contribution{
		{Name: "posts", Records: []any{post}},
		{Name: "posts_authors", Records: []any{PostAuthor{PostID: item.ID, AuthorID: defaultAuthor}}},
	}, nil
}
