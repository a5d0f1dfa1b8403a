// Package registry holds the plugin descriptor for the film scrapers and
// loads it into a provider registry according to configuration.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/justchokingaround/gscrape/internal/config"
	"github.com/justchokingaround/gscrape/internal/providers"
	providerhttp "github.com/justchokingaround/gscrape/internal/providers/http"
	"github.com/justchokingaround/gscrape/internal/providers/movies/vadapav"
	"github.com/justchokingaround/gscrape/internal/providers/movies/vidsrcme"
	"github.com/justchokingaround/gscrape/internal/providers/movies/vidsrcto"
	"github.com/justchokingaround/gscrape/pkg/extractors"
)

// PluginVersion is the descriptor format this package understands
const PluginVersion = 1

// Deps are the shared collaborators handed to every factory
type Deps struct {
	Config *config.Config
	Client *providerhttp.Client
	Logger *slog.Logger
}

// Factory builds one scraper
type Factory func(Deps) providers.Scraper

// Plugin describes a set of scrapers and which one DEFAULT resolves to
// when configuration does not choose
type Plugin struct {
	Version  int
	Default  string
	Scrapers map[string]Factory
}

// Films is the descriptor for the vadapav, vidsrc.to and vidsrc.me scrapers
func Films() Plugin {
	return Plugin{
		Version: PluginVersion,
		Default: "vadapav",
		Scrapers: map[string]Factory{
			"vadapav":  newVadapav,
			"vidsrcto": newVidsrcTo,
			"vidsrcme": newVidsrcMe,
		},
	}
}

func newVadapav(d Deps) providers.Scraper {
	s := vadapav.New(d.Client, d.Logger)
	if d.Config != nil && d.Config.Providers.Vadapav.BaseURL != "" {
		s.BaseURL = d.Config.Providers.Vadapav.BaseURL
	}
	return s
}

func newVidsrcTo(d Deps) providers.Scraper {
	resolver := extractors.NewVidPlayExtractor(d.Client, d.Logger)
	s := vidsrcto.New(d.Client, resolver, d.Logger)
	if d.Config == nil {
		return s
	}

	settings := d.Config.Providers.VidsrcTo
	if settings.BaseURL != "" {
		s.BaseURL = settings.BaseURL
	}
	if settings.KeysURL != "" {
		resolver.KeysURL = settings.KeysURL
	}
	if settings.VidplayURL != "" {
		resolver.BaseURL = settings.VidplayURL
	}
	return s
}

func newVidsrcMe(d Deps) providers.Scraper {
	s := vidsrcme.New(d.Client, d.Logger)
	if d.Config != nil && d.Config.Providers.VidsrcMe.BaseURL != "" {
		s.BaseURL = d.Config.Providers.VidsrcMe.BaseURL
	}
	return s
}

// Load registers every enabled scraper of plugin and applies the default
// rule: providers.default from config, else the plugin's own default
func Load(plugin Plugin, deps Deps) (*providers.Registry, error) {
	if plugin.Version != PluginVersion {
		return nil, fmt.Errorf("unsupported plugin version %d (want %d)", plugin.Version, PluginVersion)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	names := make([]string, 0, len(plugin.Scrapers))
	for name := range plugin.Scrapers {
		names = append(names, name)
	}
	sort.Strings(names)

	reg := providers.NewRegistry()
	for _, name := range names {
		if deps.Config != nil {
			if settings, ok := deps.Config.Providers.Settings(name); ok && !settings.Enabled {
				deps.Logger.Debug("provider disabled", "name", name)
				continue
			}
		}

		scraper := plugin.Scrapers[name](deps)
		if err := reg.Register(scraper); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", name, err)
		}
		deps.Logger.Debug("registered provider", "name", name)
	}

	def := plugin.Default
	if deps.Config != nil && deps.Config.Providers.Default != "" {
		def = deps.Config.Providers.Default
	}
	if def != "" {
		if err := reg.SetDefault(def); err != nil {
			return nil, fmt.Errorf("failed to set default provider: %w", err)
		}
	}

	return reg, nil
}
