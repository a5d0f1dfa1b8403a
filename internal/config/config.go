package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "gscrape"
	envPrefix  = "GSCRAPE"
	configName = "config"
)

// Config is the full gscrape configuration
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Search    SearchConfig    `mapstructure:"search" yaml:"search"`
}

// LoggingConfig controls the slog handler and its rotating file sink.
// File may be a path, "stderr", or empty for the state directory default.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	Color      bool   `mapstructure:"color" yaml:"color"`
}

// HTTPConfig configures the shared scraper HTTP client
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	UserAgent  string        `mapstructure:"user_agent" yaml:"user_agent"`
	Debug      bool          `mapstructure:"debug" yaml:"debug"`
}

// MarshalYAML writes the timeout as a duration string ("30s") so the file
// round-trips through viper
func (h HTTPConfig) MarshalYAML() (any, error) {
	return struct {
		Timeout    string `yaml:"timeout"`
		MaxRetries int    `yaml:"max_retries"`
		UserAgent  string `yaml:"user_agent"`
		Debug      bool   `yaml:"debug"`
	}{h.Timeout.String(), h.MaxRetries, h.UserAgent, h.Debug}, nil
}

// ProviderSettings are the knobs every scraper has
type ProviderSettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// VidsrcToSettings adds the VidPlay resolver endpoints
type VidsrcToSettings struct {
	ProviderSettings `mapstructure:",squash" yaml:",inline"`
	KeysURL          string `mapstructure:"keys_url" yaml:"keys_url"`
	VidplayURL       string `mapstructure:"vidplay_url" yaml:"vidplay_url"`
}

// ProvidersConfig selects the default scraper and configures each one
type ProvidersConfig struct {
	Default  string           `mapstructure:"default" yaml:"default"`
	Vadapav  ProviderSettings `mapstructure:"vadapav" yaml:"vadapav"`
	VidsrcTo VidsrcToSettings `mapstructure:"vidsrcto" yaml:"vidsrcto"`
	VidsrcMe ProviderSettings `mapstructure:"vidsrcme" yaml:"vidsrcme"`
}

// Settings returns the common settings for a scraper by name
func (p ProvidersConfig) Settings(name string) (ProviderSettings, bool) {
	switch name {
	case "vadapav":
		return p.Vadapav, true
	case "vidsrcto":
		return p.VidsrcTo.ProviderSettings, true
	case "vidsrcme":
		return p.VidsrcMe, true
	default:
		return ProviderSettings{}, false
	}
}

// SearchConfig holds search defaults
type SearchConfig struct {
	Limit int `mapstructure:"limit" yaml:"limit"`
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", false)
	v.SetDefault("logging.color", true)

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	v.SetDefault("http.debug", false)

	v.SetDefault("providers.default", "vadapav")
	v.SetDefault("providers.vadapav.enabled", true)
	v.SetDefault("providers.vadapav.base_url", "https://vadapav.mov")
	v.SetDefault("providers.vidsrcto.enabled", true)
	v.SetDefault("providers.vidsrcto.base_url", "https://vidsrc.to")
	v.SetDefault("providers.vidsrcto.keys_url", "https://raw.githubusercontent.com/Ciarands/vidsrc-keys/main/keys.json")
	v.SetDefault("providers.vidsrcto.vidplay_url", "https://vidplay.online")
	v.SetDefault("providers.vidsrcme.enabled", true)
	v.SetDefault("providers.vidsrcme.base_url", "https://vidsrc.net")

	v.SetDefault("search.limit", 10)
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		// defaults are static, this only fails on a programming error
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Load reads cfgFile (or config.yaml in the config dir when empty), applies
// GSCRAPE_* environment overrides and validates the result. A missing
// default file is not an error.
func Load(cfgFile string) (*Config, *viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(GetConfigDir())
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, v, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout)
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must not be negative, got %d", c.HTTP.MaxRetries)
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be positive, got %d", c.Search.Limit)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	settings, ok := c.Providers.Settings(c.Providers.Default)
	if !ok {
		return fmt.Errorf("providers.default names unknown provider %q", c.Providers.Default)
	}
	if !settings.Enabled {
		return fmt.Errorf("providers.default names disabled provider %q", c.Providers.Default)
	}

	return nil
}

// GetConfigDir returns $XDG_CONFIG_HOME/gscrape (or the OS equivalent)
func GetConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// getStateDir returns the base directory for logs
func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, ".local", "state")
}

// InitializeDirs creates the config and state directories
func InitializeDirs() error {
	for _, dir := range []string{GetConfigDir(), filepath.Join(getStateDir(), appName)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// SaveDefaultConfig writes the default configuration as YAML to path
func SaveDefaultConfig(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
