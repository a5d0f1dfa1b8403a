// Package imdb is the metadata side of the embed scrapers: title search via
// the suggestion API and season/episode counts via the _next data API.
package imdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/justchokingaround/gscrape/internal/providers"
	providerhttp "github.com/justchokingaround/gscrape/internal/providers/http"
)

const (
	DefaultSuggestionURL = "https://v2.sg.media-imdb.com/suggestion"
	DefaultHomeURL       = "https://imdb.com/"
	DefaultNextDataURL   = "https://www.imdb.com/_next/data"
)

var buildIDPattern = regexp.MustCompile(`"buildId":"(.*?)"`)

// Suggestion is one entry of the suggestion API's "d" array
type Suggestion struct {
	ID        string `json:"id"`
	Label     string `json:"l"`
	Qualifier string `json:"qid"`
	Rank      int    `json:"rank"`
	Slug      string `json:"s"`
	Year      int    `json:"y"`
	Image     *struct {
		URL    string `json:"imageUrl"`
		Height int    `json:"height"`
		Width  int    `json:"width"`
	} `json:"i"`
}

// MediaType maps the qualifier onto a media type. Anything other than
// movie or tvSeries is not a playable title.
func (s Suggestion) MediaType() (providers.MediaType, bool) {
	switch s.Qualifier {
	case "movie":
		return providers.MediaTypeMovie, true
	case "tvSeries":
		return providers.MediaTypeSeries, true
	default:
		return "", false
	}
}

// Metadata converts the suggestion into host metadata
func (s Suggestion) Metadata() (providers.Metadata, bool) {
	mediaType, ok := s.MediaType()
	if !ok {
		return providers.Metadata{}, false
	}

	m := providers.Metadata{
		ID:    s.ID,
		Title: s.Label,
		Type:  mediaType,
		Year:  s.Year,
	}
	if s.Image != nil {
		m.PosterURL = s.Image.URL
	}
	return m, true
}

type suggestionResponse struct {
	D []Suggestion `json:"d"`
}

type episodesPage struct {
	PageProps struct {
		ContentData struct {
			Section struct {
				Seasons []struct {
					Value string `json:"value"`
				} `json:"seasons"`
				Episodes struct {
					Items []struct {
						ID string `json:"id"`
					} `json:"items"`
				} `json:"episodes"`
			} `json:"section"`
		} `json:"contentData"`
	} `json:"pageProps"`
}

// Catalog searches IMDb and counts episodes per season
type Catalog struct {
	client *providerhttp.Client
	logger *slog.Logger

	SuggestionURL string
	HomeURL       string
	NextDataURL   string
}

// New creates a Catalog against the public IMDb endpoints
func New(client *providerhttp.Client, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		client:        client,
		logger:        logger,
		SuggestionURL: DefaultSuggestionURL,
		HomeURL:       DefaultHomeURL,
		NextDataURL:   DefaultNextDataURL,
	}
}

// Search returns up to limit movies and series in the order IMDb ranks them
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]providers.Metadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if limit <= 0 {
		limit = providers.DefaultSearchLimit
	}

	first := strings.ToLower(string([]rune(query)[0]))
	searchURL := fmt.Sprintf("%s/%s/%s.json", c.SuggestionURL, url.PathEscape(first), url.PathEscape(query))

	var resp suggestionResponse
	if err := c.client.GetJSON(ctx, searchURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("imdb search failed: %w", err)
	}

	results := make([]providers.Metadata, 0, min(limit, len(resp.D)))
	for _, s := range resp.D {
		if len(results) >= limit {
			break
		}
		m, ok := s.Metadata()
		if !ok {
			continue
		}
		results = append(results, m)
	}

	c.logger.Debug("imdb search", "query", query, "candidates", len(resp.D), "results", len(results))
	return results, nil
}

// EpisodeIndex counts the episodes of every numeric season of a series.
// Movies have no seasons and return an empty index.
func (c *Catalog) EpisodeIndex(ctx context.Context, metadata providers.Metadata) (providers.EpisodeIndex, error) {
	index := providers.EpisodeIndex{}
	if !metadata.IsSeries() {
		return index, nil
	}

	buildID, err := c.buildID(ctx, metadata)
	if err != nil {
		return nil, err
	}

	episodesURL := fmt.Sprintf("%s/%s/title/%s/episodes.json", c.NextDataURL, buildID, metadata.ID)

	var page episodesPage
	if err := c.client.GetJSON(ctx, episodesURL, nil, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch seasons for %s: %w", metadata.Title, err)
	}

	for _, season := range page.PageProps.ContentData.Section.Seasons {
		// markers such as "All" or "Unknown" are not seasons
		if !isDigits(season.Value) {
			continue
		}
		number, err := strconv.Atoi(season.Value)
		if err != nil {
			continue
		}

		var seasonPage episodesPage
		seasonURL := episodesURL + "?season=" + url.QueryEscape(season.Value)
		if err := c.client.GetJSON(ctx, seasonURL, nil, &seasonPage); err != nil {
			return nil, fmt.Errorf("failed to fetch season %d of %s: %w", number, metadata.Title, err)
		}
		index[number] = len(seasonPage.PageProps.ContentData.Section.Episodes.Items)
	}

	c.logger.Debug("imdb episode index", "id", metadata.ID, "seasons", len(index))
	return index, nil
}

func (c *Catalog) buildID(ctx context.Context, metadata providers.Metadata) (string, error) {
	resp, err := c.client.Get(ctx, c.HomeURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch imdb home page: %w", err)
	}

	match := buildIDPattern.FindStringSubmatch(resp.String())
	if match == nil || match[1] == "" {
		return "", providers.NewScrapeError("imdb", "episodes", metadata.Title, providers.ErrNoBuildID)
	}
	return match[1], nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
