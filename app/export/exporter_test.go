package export

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hellosteadman/ghostexporter/app/cfg"
	apperrors "github.com/hellosteadman/ghostexporter/app/errors"
)

const examplePlugin = `domains: ["media.example.fm"]
pattern: '^https?://media\.example\.fm/([^/]+)/'
embed_url: 'https://share.example.fm/e/${1}'
`

// newPodcastServer serves a one-episode feed whose enclosure sits behind a
// tracking redirect on the same server.
func newPodcastServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example Show</title>
    <item>
      <title>Episode 1</title>
      <description>&lt;p&gt;Notes&lt;/p&gt;</description>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <enclosure url="http://%s/track/show/ep1.mp3" length="1" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`, r.Host)
	})
	mux.HandleFunc("/track/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://media.example.fm/"+strings.TrimPrefix(r.URL.Path, "/track/"), http.StatusFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func testCfg(t *testing.T) *cfg.Cfg {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "examplefm.yml"), []byte(examplePlugin), 0644); err != nil {
		t.Fatalf("Failed to write plugin: %v", err)
	}

	return &cfg.Cfg{
		DocVersion:      "5",
		Plugins:         []string{"examplefm", "transistor", "missing"},
		PluginsDir:      dir,
		TrackingDomains: []string{"127.0.0.1"},
		MaxHops:         10,
		Timeout:         5 * time.Second,
		FeedTimeout:     5 * time.Second,
		Workers:         2,
		UserAgent:       "ghostexporter/test",
	}
}

func TestExporterWrite(t *testing.T) {
	server := newPodcastServer(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	exporter, err := New(testCfg(t), server.Client(), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var buf bytes.Buffer
	if err := exporter.Write(context.Background(), &buf, server.URL+"/feed.xml", "5"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	out := buf.String()
	iframe := `<iframe src=\"https://share.example.fm/e/show\"`
	if !strings.Contains(out, `"html":"`+iframe) {
		t.Errorf("Expected post html to start with the player iframe, got: %s", out)
	}
	if !strings.Contains(out, `seamless></iframe>\n\n<p>Notes</p>`) {
		t.Errorf("Expected description after the iframe, got: %s", out)
	}
	if !strings.Contains(out, fmt.Sprintf(`"exported_on":%d`, now.UnixMilli())) {
		t.Errorf("Expected exported_on from clock, got: %s", out)
	}
	if !strings.Contains(out, `"author_id":"1"`) {
		t.Errorf("Expected posts_authors record, got: %s", out)
	}
}

func TestExporterProviders(t *testing.T) {
	exporter, err := New(testCfg(t), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	providers := exporter.Providers()
	if len(providers) != 2 || providers[0] != "examplefm" || providers[1] != "transistor" {
		t.Errorf("Expected [examplefm transistor], got %v", providers)
	}
}

func TestExporterBrokenPlugin(t *testing.T) {
	c := testCfg(t)
	if err := os.WriteFile(filepath.Join(c.PluginsDir, "broken.yml"), []byte("pattern: '('"), 0644); err != nil {
		t.Fatalf("Failed to write plugin: %v", err)
	}
	c.Plugins = append(c.Plugins, "broken")

	if _, err := New(c, nil); err == nil {
		t.Error("Expected error for broken plugin")
	}
}

func TestExporterValidation(t *testing.T) {
	exporter, err := New(testCfg(t), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	tests := []struct {
		name    string
		url     string
		version string
	}{
		{"empty url", "", "5"},
		{"ftp url", "ftp://example.fm/feed.xml", "5"},
		{"relative url", "/feed.xml", "5"},
		{"unknown version", "https://example.fm/feed.xml", "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := exporter.Write(context.Background(), &buf, tt.url, tt.version)
			if !apperrors.IsValidation(err) {
				t.Errorf("Expected validation error, got: %v", err)
			}
			if buf.Len() != 0 {
				t.Errorf("Expected nothing written, got %d bytes", buf.Len())
			}
		})
	}
}

func TestExporterFeedUnavailable(t *testing.T) {
	server := newPodcastServer(t)
	exporter, err := New(testCfg(t), server.Client())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var buf bytes.Buffer
	err = exporter.Write(context.Background(), &buf, server.URL+"/missing.xml", "5")
	if !apperrors.IsTransport(err) {
		t.Errorf("Expected transport error, got: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected nothing written, got %d bytes", buf.Len())
	}
}
