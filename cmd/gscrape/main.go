package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/justchokingaround/gscrape/internal/clipboard"
	"github.com/justchokingaround/gscrape/internal/config"
	"github.com/justchokingaround/gscrape/internal/providers"
	providerhttp "github.com/justchokingaround/gscrape/internal/providers/http"
	"github.com/justchokingaround/gscrape/internal/providers/utils"
	"github.com/justchokingaround/gscrape/internal/registry"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	logLevel  string
	noColor   bool
	debugMode bool

	// Global state set up in PersistentPreRunE
	cfg     *config.Config
	cfgUsed string
	logger  *slog.Logger
	reg     *providers.Registry
	style   styles
)

// minimum similarity for the links command to accept a title
const linkMinScore = 0.5

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, newStyles(!noColor).bad.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// skipSetup lists commands that must work without a valid config
func skipSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help":
		return true
	case "init", "path":
		return cmd.Parent() != nil && cmd.Parent().Name() == "config"
	}
	return false
}

var rootCmd = &cobra.Command{
	Use:   "gscrape",
	Short: "Resolve film and series streams from vadapav, vidsrc.to and vidsrc.me",
	Long: `gscrape searches film catalogues, lists seasons and resolves a playable
stream URL (with its referrer and subtitles) for a title.

Providers: vadapav (directory index), vidsrcto and vidsrcme (IMDb ids).
DEFAULT resolves to providers.default from the config file.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		style = newStyles(!noColor)
		if skipSetup(cmd) {
			return nil
		}

		if err := config.InitializeDirs(); err != nil {
			return fmt.Errorf("failed to initialize directories: %w", err)
		}

		c, v, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		cfgUsed = v.ConfigFileUsed()

		// Enable debug mode if flag is set
		if debugMode {
			cfg.HTTP.Debug = true
			if logLevel == "" {
				cfg.Logging.Level = "debug"
			}
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if noColor {
			cfg.Logging.Color = false
		}

		base, err := config.InitLogger(&cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = base.With("run_id", uuid.NewString(), "command", cmd.CommandPath())

		client := providerhttp.NewClient(providerhttp.ClientConfig{
			Timeout:    cfg.HTTP.Timeout,
			MaxRetries: cfg.HTTP.MaxRetries,
			UserAgent:  cfg.HTTP.UserAgent,
			Debug:      cfg.HTTP.Debug,
			Logger:     logger,
		})

		reg, err = registry.Load(registry.Films(), registry.Deps{
			Config: cfg,
			Client: client,
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("failed to load providers: %w", err)
		}

		logger.Debug("gscrape ready", "version", version, "providers", reg.List(), "default", reg.Default())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/gscrape/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging and HTTP tracing")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(episodesCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(linksCmd)
	rootCmd.AddCommand(providersCmd)
}

// versionCmd displays version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gscrape version %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		fmt.Printf("Plugin version: %d\n", registry.PluginVersion)
	},
}

// configCmd handles configuration operations
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = filepath.Join(config.GetConfigDir(), "config.yaml")
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		if err := config.SaveDefaultConfig(configPath); err != nil {
			return fmt.Errorf("failed to save default configuration: %w", err)
		}

		fmt.Printf("Default configuration generated at: %s\n", configPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		source := cfgUsed
		if source == "" {
			source = "(defaults)"
		}
		fmt.Printf("%s %s\n", style.label.Render("Config file:"), source)
		fmt.Printf("%s %s\n", style.label.Render("Log level:  "), cfg.Logging.Level)
		fmt.Printf("%s %s\n", style.label.Render("Timeout:    "), cfg.HTTP.Timeout)
		fmt.Printf("%s %d\n", style.label.Render("Retries:    "), cfg.HTTP.MaxRetries)
		fmt.Printf("%s %s\n", style.label.Render("Default:    "), cfg.Providers.Default)
		fmt.Printf("%s %d\n", style.label.Render("Limit:      "), cfg.Search.Limit)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Display configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			fmt.Println(cfgFile)
		} else {
			fmt.Println(filepath.Join(config.GetConfigDir(), "config.yaml"))
		}
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func scraperFor(cmd *cobra.Command) (providers.Scraper, error) {
	name, _ := cmd.Flags().GetString("provider")
	scraper, err := reg.Get(name)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}
	return scraper, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// a scrape is several sequential requests, each bounded by the HTTP timeout
	return context.WithTimeout(cmd.Context(), 4*cfg.HTTP.Timeout)
}

// searchCmd searches a provider's catalogue
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for films and series",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		if limit <= 0 {
			limit = cfg.Search.Limit
		}

		scraper, err := scraperFor(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		logger.Info("searching", "query", query, "provider", scraper.Name(), "limit", limit)
		results, err := scraper.Search(ctx, query, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), results)
		}
		printResults(cmd.OutOrStdout(), style, scraper.Name(), results, time.Now())
		return nil
	},
}

// episodesCmd prints the season → episode count index of a series
var episodesCmd = &cobra.Command{
	Use:   "episodes <id>",
	Short: "List seasons and episode counts of a series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		asJSON, _ := cmd.Flags().GetBool("json")
		if title == "" {
			title = args[0]
		}

		scraper, err := scraperFor(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		metadata := providers.Metadata{ID: args[0], Title: title, Type: providers.MediaTypeSeries}
		index, err := scraper.EpisodeIndex(ctx, metadata)
		if err != nil {
			return fmt.Errorf("failed to get episodes: %w", err)
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), index)
		}
		printEpisodeIndex(cmd.OutOrStdout(), style, title, index)
		return nil
	},
}

// scrapeCmd resolves a stream for a known id
var scrapeCmd = &cobra.Command{
	Use:   "scrape <id>",
	Short: "Resolve a playable stream for a film or episode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeStr, _ := cmd.Flags().GetString("type")
		title, _ := cmd.Flags().GetString("title")
		year, _ := cmd.Flags().GetInt("year")

		mediaType, err := providers.ParseMediaType(typeStr)
		if err != nil {
			return err
		}
		if title == "" {
			title = args[0]
		}

		scraper, err := scraperFor(cmd)
		if err != nil {
			return err
		}

		metadata := providers.Metadata{ID: args[0], Title: title, Type: mediaType, Year: year}
		return runScrape(cmd, scraper, metadata)
	},
}

// linksCmd searches, picks the closest title and resolves it
var linksCmd = &cobra.Command{
	Use:   "links <query>",
	Short: "Search, pick the best matching title and resolve its stream",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		scraper, err := scraperFor(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		logger.Info("searching for media", "query", query, "provider", scraper.Name())
		results, err := scraper.Search(ctx, query, cfg.Search.Limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(results) == 0 {
			return fmt.Errorf("no results found for query: %s", query)
		}

		match := utils.FindBestMatch(query, results, linkMinScore)
		if match == nil {
			return fmt.Errorf("no result close enough to %q (best was %q)", query, results[0].Title)
		}
		logger.Info("found media", "title", match.Metadata.Title, "id", match.Metadata.ID, "score", match.Score, "fuzzy", match.IsFuzzy)

		return runScrape(cmd, scraper, match.Metadata)
	},
}

func runScrape(cmd *cobra.Command, scraper providers.Scraper, metadata providers.Metadata) error {
	season, _ := cmd.Flags().GetInt("season")
	episode, _ := cmd.Flags().GetInt("episode")
	asJSON, _ := cmd.Flags().GetBool("json")
	copyURL, _ := cmd.Flags().GetBool("copy")
	openURL, _ := cmd.Flags().GetBool("open")

	var sel *providers.EpisodeSelector
	if metadata.IsSeries() {
		sel = &providers.EpisodeSelector{Season: season, Episode: episode}
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	logger.Info("scraping", "provider", scraper.Name(), "id", metadata.ID, "title", metadata.Title, "type", metadata.Type)
	stream, err := scraper.Scrape(ctx, metadata, sel)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	logger.Debug("resolved stream", "url", stream.URL, "referrer", stream.Referrer)

	if asJSON {
		if err := writeJSON(cmd.OutOrStdout(), stream); err != nil {
			return err
		}
	} else {
		printStream(cmd.OutOrStdout(), style, stream)
	}

	if copyURL {
		if err := clipboard.NewService(logger, "").Write(ctx, stream.URL); err != nil {
			logger.Error("failed to copy stream url", "error", err)
			fmt.Fprintln(cmd.ErrOrStderr(), style.bad.Render("Failed to copy URL: "+err.Error()))
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), style.muted.Render("Copied stream URL to clipboard"))
		}
	}

	if openURL {
		if err := browser.OpenURL(stream.URL); err != nil {
			logger.Error("failed to open stream url", "error", err)
			fmt.Fprintln(cmd.ErrOrStderr(), style.bad.Render("Failed to open URL: "+err.Error()))
		}
	}

	return nil
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, episodesCmd, scrapeCmd, linksCmd} {
		c.Flags().StringP("provider", "p", providers.DefaultName, "provider to use (DEFAULT follows providers.default)")
		c.Flags().Bool("json", false, "print JSON instead of text")
	}

	searchCmd.Flags().IntP("limit", "n", 0, "maximum number of results (default: search.limit)")

	episodesCmd.Flags().String("title", "", "title used in output and errors")

	scrapeCmd.Flags().String("type", "movie", "media type: movie or series")
	scrapeCmd.Flags().String("title", "", "title used in output and errors")
	scrapeCmd.Flags().Int("year", 0, "release year")

	for _, c := range []*cobra.Command{scrapeCmd, linksCmd} {
		c.Flags().IntP("season", "s", 1, "season number (series only)")
		c.Flags().IntP("episode", "e", 1, "episode number (series only)")
		c.Flags().Bool("copy", false, "copy the stream URL to the clipboard")
		c.Flags().Bool("open", false, "open the stream URL with the system handler")
	}
}

// providersCmd manages providers
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect registered providers",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered providers",
	Run: func(cmd *cobra.Command, args []string) {
		names := reg.List()
		if len(names) == 0 {
			fmt.Println("No providers registered")
			return
		}

		fmt.Println(style.header.Render(fmt.Sprintf("Available providers (%d):", len(names))))
		for _, name := range names {
			marker := ""
			if name == reg.Default() {
				marker = style.muted.Render(" (" + providers.DefaultName + ")")
			}
			fmt.Printf("- %s%s\n", name, marker)
		}
	},
}

var providersInfoCmd = &cobra.Command{
	Use:   "info <provider-name>",
	Short: "Get information about a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scraper, err := reg.Get(args[0])
		if err != nil {
			return fmt.Errorf("provider %s not found: %w", args[0], err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		fmt.Printf("%s %s\n", style.label.Render("Provider:"), scraper.Name())
		fmt.Printf("%s %t\n", style.label.Render("Default: "), scraper.Name() == reg.Default())
		if u, ok := scraper.(providers.HealthURLer); ok {
			fmt.Printf("%s %s\n", style.label.Render("URL:     "), u.HealthURL())
		}

		fmt.Printf("%s ", style.label.Render("Status:  "))
		if err := scraper.HealthCheck(ctx); err == nil {
			fmt.Println(style.ok.Render("Available ✓"))
		} else {
			fmt.Println(style.bad.Render(fmt.Sprintf("Unavailable ✗ (%v)", err)))
		}

		return nil
	},
}

var providersCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Health check every provider concurrently",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("running provider health checks")
		reg.CheckAllProviders(cmd.Context(), cfg.HTTP.UserAgent)
		printStatuses(cmd.OutOrStdout(), style, reg.GetProviderStatuses())
	},
}

func init() {
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersInfoCmd)
	providersCmd.AddCommand(providersCheckCmd)
}
