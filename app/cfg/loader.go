package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// ErrHelp is returned by the loaders after help output was requested.
var ErrHelp = errors.New("help requested")

type exportOptions struct {
	DocVersion      string        `long:"doc-version" env:"DOC_VERSION" default:"5" description:"Ghost document version to produce"`
	Plugins         []string      `long:"plugin" env:"PLUGINS" env-delim:"," default:"buzzsprout" default:"transistor" description:"Embed provider plugin to enable (repeatable, in priority order)"`
	PluginsDir      string        `long:"plugins-dir" env:"PLUGINS_DIR" default:"./plugins" description:"Directory containing YAML provider plugins"`
	TrackingDomains []string      `long:"tracking-domain" env:"TRACKING_DOMAINS" env-delim:"," description:"Additional tracking relay domain (repeatable, *.example.com allowed)"`
	MaxHops         int           `long:"max-hops" env:"MAX_HOPS" default:"10" description:"Maximum tracking redirects followed per enclosure"`
	Timeout         time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"Timeout for each tracking redirect request"`
	FeedTimeout     time.Duration `long:"feed-timeout" env:"FEED_TIMEOUT" default:"30s" description:"Timeout for fetching the feed"`
	RequestRate     float64       `long:"request-rate" env:"REQUEST_RATE" default:"0" description:"Maximum tracking requests per second (0 disables limiting)"`
	Workers         int           `long:"workers" env:"WORKERS" default:"1" description:"Number of items transformed concurrently"`
	UserAgent       string        `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests"`
	Verbose         []bool        `short:"v" long:"verbose" description:"Increase log verbosity (repeatable)"`
	Debug           bool          `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

type serverOptions struct {
	Port         string        `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string        `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	CacheTTL     time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"10m" description:"How long fetched feeds and resolved enclosures are cached (0 disables)"`
}

type rawCfg struct {
	Export exportOptions `group:"Export Options"`
}

type rawServerCfg struct {
	Export exportOptions `group:"Export Options"`
	Server serverOptions `group:"Server Options"`
}

// Load parses command-line args for the exporter. Positional arguments are
// returned in Cfg.Args.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	rest, err := parse(&raw, "[OPTIONS] URL", args)
	if err != nil {
		return nil, err
	}

	cfg := fromExportOptions(raw.Export)
	cfg.Args = rest

	return cfg, nil
}

// LoadServer parses command-line args for the export service.
func LoadServer(args []string) (*Cfg, error) {
	var raw rawServerCfg

	rest, err := parse(&raw, "[OPTIONS]", args)
	if err != nil {
		return nil, err
	}

	cfg := fromExportOptions(raw.Export)
	cfg.Port = raw.Server.Port
	cfg.APIAccessKey = raw.Server.APIAccessKey
	cfg.CacheTTL = raw.Server.CacheTTL
	cfg.Args = rest

	return cfg, nil
}

func parse(data any, usage string, args []string) ([]string, error) {
	parser := flags.NewParser(data, flags.Default)
	parser.Usage = usage

	rest, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return rest, nil
}

func fromExportOptions(raw exportOptions) *Cfg {
	return &Cfg{
		DocVersion:      raw.DocVersion,
		Plugins:         raw.Plugins,
		PluginsDir:      raw.PluginsDir,
		TrackingDomains: raw.TrackingDomains,
		MaxHops:         raw.MaxHops,
		Timeout:         raw.Timeout,
		FeedTimeout:     raw.FeedTimeout,
		RequestRate:     raw.RequestRate,
		Workers:         max(raw.Workers, 1),
		UserAgent:       cmp.Or(raw.UserAgent, "ghostexporter/"+GetVersion()),
		LogLevel:        logLevel(len(raw.Verbose), raw.Debug),
		Version:         GetVersion(),
	}
}

// logLevel maps the number of -v flags to a level: none or two is warn, one
// is error, three is info and four or more is debug.
func logLevel(verbosity int, debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}

	switch {
	case verbosity >= 4:
		return slog.LevelDebug
	case verbosity == 3:
		return slog.LevelInfo
	case verbosity == 1:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
