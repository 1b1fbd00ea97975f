package cfg

import (
	"log/slog"
	"time"
)

type Cfg struct {
	// Export configuration
	DocVersion      string
	Plugins         []string
	PluginsDir      string
	TrackingDomains []string
	MaxHops         int
	Timeout         time.Duration
	FeedTimeout     time.Duration
	RequestRate     float64
	Workers         int

	// Server configuration
	Port         string
	APIAccessKey string
	CacheTTL     time.Duration

	// Application metadata
	UserAgent string
	LogLevel  slog.Level
	Version   string

	// Positional arguments left after option parsing
	Args []string
}
