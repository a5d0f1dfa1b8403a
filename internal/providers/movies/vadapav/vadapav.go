package vadapav

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/justchokingaround/gscrape/internal/providers"
	providerhttp "github.com/justchokingaround/gscrape/internal/providers/http"
	"github.com/justchokingaround/gscrape/internal/providers/utils"
)

const DefaultBaseURL = "https://vadapav.mov"

var subtitleFormats = map[string]bool{
	"srt": true,
	"vtt": true,
	"ass": true,
}

// Entry is one item of a vadapav listing, either a directory or a file
type Entry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Dir    bool   `json:"dir"`
	Parent string `json:"parent"`
	MTime  string `json:"mtime"`
}

// Modified parses mtime, returning the zero time when it is missing or malformed
func (e Entry) Modified() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.MTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (e Entry) subtitleFormat() string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(e.Name)), ".")
	if subtitleFormats[ext] {
		return ext
	}
	return ""
}

type searchResponse struct {
	Data []Entry `json:"data"`
}

type listResponse struct {
	Data struct {
		Files []Entry `json:"files"`
	} `json:"data"`
}

// Vadapav scrapes the vadapav.mov directory index
type Vadapav struct {
	client *providerhttp.Client
	logger *slog.Logger

	BaseURL string
}

// New creates a vadapav scraper
func New(client *providerhttp.Client, logger *slog.Logger) *Vadapav {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vadapav{
		client:  client,
		logger:  logger,
		BaseURL: DefaultBaseURL,
	}
}

func (v *Vadapav) Name() string {
	return "vadapav"
}

// HealthURL is the page HealthCheck probes
func (v *Vadapav) HealthURL() string {
	return v.BaseURL
}

func (v *Vadapav) HealthCheck(ctx context.Context) error {
	_, err := v.client.Get(ctx, v.BaseURL, nil)
	return err
}

// Search lists matching directories. The API does not say whether a
// directory is a movie or a series, so each hit costs one more listing.
func (v *Vadapav) Search(ctx context.Context, query string, limit int) ([]providers.Metadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if limit <= 0 {
		limit = providers.DefaultSearchLimit
	}

	var resp searchResponse
	searchURL := fmt.Sprintf("%s/api/s/%s", v.BaseURL, url.PathEscape(query))
	if err := v.client.GetJSON(ctx, searchURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("vadapav search failed: %w", err)
	}

	var results []providers.Metadata
	for _, entry := range resp.Data {
		if len(results) >= limit {
			break
		}
		// loose files cannot be listed
		if !entry.Dir {
			continue
		}

		children, err := v.list(ctx, entry.ID)
		if err != nil {
			return nil, err
		}

		mediaType := providers.MediaTypeMovie
		for _, child := range children {
			if strings.Contains(child.Name, "Season") {
				mediaType = providers.MediaTypeSeries
				break
			}
		}

		results = append(results, providers.Metadata{
			ID:        entry.ID,
			Title:     utils.CleanText(entry.Name),
			Type:      mediaType,
			Year:      utils.ExtractYear(entry.Name),
			UpdatedAt: entry.Modified(),
		})
	}

	v.logger.Debug("vadapav search", "query", query, "candidates", len(resp.Data), "results", len(results))
	return results, nil
}

// EpisodeIndex treats every child of the title directory as a season,
// numbered by listing position, and counts its entries
func (v *Vadapav) EpisodeIndex(ctx context.Context, metadata providers.Metadata) (providers.EpisodeIndex, error) {
	index := providers.EpisodeIndex{}
	if !metadata.IsSeries() {
		return index, nil
	}

	seasons, err := v.list(ctx, metadata.ID)
	if err != nil {
		return nil, err
	}

	for i, season := range seasons {
		episodes, err := v.list(ctx, season.ID)
		if err != nil {
			return nil, err
		}
		index[i+1] = len(episodes)
	}

	return index, nil
}

// Scrape builds a direct download URL for the movie file or the selected episode
func (v *Vadapav) Scrape(ctx context.Context, metadata providers.Metadata, episode *providers.EpisodeSelector) (*providers.Stream, error) {
	children, err := v.list(ctx, metadata.ID)
	if err != nil {
		return nil, err
	}

	if !metadata.IsSeries() {
		for _, child := range children {
			if child.Dir || child.subtitleFormat() != "" {
				continue
			}
			v.logger.Debug("vadapav movie file", "title", metadata.Title, "file", child.Name)
			return providers.NewMovieStream(v.fileURL(child.ID), metadata, v.BaseURL, v.subtitles(children, "")), nil
		}
		return nil, providers.NewScrapeError(v.Name(), "scrape", metadata.Title, providers.ErrNoFiles)
	}

	sel := episode.OrDefault()
	// seasons are picked by listing position, not by the number in the name
	if sel.Season > len(children) {
		return nil, providers.NewScrapeError(v.Name(), "scrape", metadata.Title,
			fmt.Errorf("%w: season %d of %d", providers.ErrNoSeason, sel.Season, len(children)))
	}
	season := children[sel.Season-1]

	files, err := v.list(ctx, season.ID)
	if err != nil {
		return nil, err
	}

	label := episodeLabel(sel.Episode)
	for _, file := range files {
		if file.Dir || file.subtitleFormat() != "" || !strings.Contains(file.Name, label) {
			continue
		}
		v.logger.Debug("vadapav episode file", "title", metadata.Title, "season", season.Name, "file", file.Name)
		return providers.NewSeriesStream(v.fileURL(file.ID), metadata, sel, v.BaseURL, v.subtitles(files, label)), nil
	}

	return nil, providers.NewScrapeError(v.Name(), "scrape", metadata.Title,
		fmt.Errorf("%w: %s in %s", providers.ErrNoEpisode, label, season.Name))
}

func (v *Vadapav) list(ctx context.Context, id string) ([]Entry, error) {
	var resp listResponse
	listURL := fmt.Sprintf("%s/api/d/%s", v.BaseURL, url.PathEscape(id))
	if err := v.client.GetJSON(ctx, listURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list vadapav directory %s: %w", id, err)
	}
	return resp.Data.Files, nil
}

func (v *Vadapav) fileURL(id string) string {
	return fmt.Sprintf("%s/f/%s", v.BaseURL, id)
}

// subtitles collects subtitle files next to the stream whose name carries label
func (v *Vadapav) subtitles(entries []Entry, label string) []providers.Subtitle {
	var subs []providers.Subtitle
	for _, e := range entries {
		format := e.subtitleFormat()
		if format == "" || !strings.Contains(e.Name, label) {
			continue
		}
		subs = append(subs, providers.Subtitle{
			Language: subtitleLanguage(e.Name),
			URL:      v.fileURL(e.ID),
			Format:   format,
		})
	}
	return subs
}

// episodeLabel is "E09" for single digit episodes and "E12" otherwise.
// Episode 12 also matches "E120"; listings past 99 episodes are rare
// enough that the plain substring match is kept.
func episodeLabel(n int) string {
	if n < 10 {
		return fmt.Sprintf("E0%d", n)
	}
	return fmt.Sprintf("E%d", n)
}

// subtitleLanguage reads "en" out of "Show.S01E09.en.srt"
func subtitleLanguage(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	if i := strings.LastIndex(base, "."); i >= 0 {
		lang := base[i+1:]
		if len(lang) >= 2 && len(lang) <= 3 {
			return strings.ToLower(lang)
		}
	}
	return "unknown"
}
