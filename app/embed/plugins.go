package embed

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PluginConfig is the YAML definition of a provider plugin.
type PluginConfig struct {
	Domains  []string `yaml:"domains"`
	Pattern  string   `yaml:"pattern"`
	EmbedURL string   `yaml:"embed_url"`
}

// PluginLoader turns configured plugin names into providers. A name is first
// looked up among the built-in providers, then as <dir>/<name>.yml.
type PluginLoader struct {
	pluginsDir string
}

func NewPluginLoader(pluginsDir string) *PluginLoader {
	return &PluginLoader{pluginsDir: pluginsDir}
}

// Run builds a registry from the named plugins, in order. Plugins that cannot
// be found are skipped; plugins that exist but cannot be loaded fail the run.
func (pl *PluginLoader) Run(names []string) (*Registry, error) {
	registry := NewRegistry()

	for _, name := range names {
		provider, found, err := pl.Load(name)
		if err != nil {
			return nil, fmt.Errorf("error loading plugin %s: %w", name, err)
		}
		if !found {
			slog.Debug("Plugin not found, skipping", "plugin", name)
			continue
		}

		registry.Register(provider)
		slog.Debug("Plugin registered", "plugin", name)
	}

	return registry, nil
}

func (pl *PluginLoader) Load(name string) (Provider, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, false, fmt.Errorf("invalid plugin name %q", name)
	}

	if builtin, ok := builtins[name]; ok {
		return builtin(), true, nil
	}

	if pl.pluginsDir == "" {
		return nil, false, nil
	}

	config, err := pl.parseConfig(pl.getConfigFilePath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	provider, err := NewPatternProvider(name, config.Domains, config.Pattern, config.EmbedURL)
	if err != nil {
		return nil, false, err
	}

	return provider, true, nil
}

func (pl *PluginLoader) parseConfig(configFile string) (*PluginConfig, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config PluginConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &config, nil
}

func (pl *PluginLoader) getConfigFilePath(name string) string {
	return filepath.Join(pl.pluginsDir, name+".yml")
}
