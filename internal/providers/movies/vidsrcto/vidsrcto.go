package vidsrcto

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/justchokingaround/gscrape/internal/providers"
	providerhttp "github.com/justchokingaround/gscrape/internal/providers/http"
	"github.com/justchokingaround/gscrape/internal/providers/imdb"
	"github.com/justchokingaround/gscrape/pkg/decoders"
	"github.com/justchokingaround/gscrape/pkg/extractors"
)

const (
	DefaultBaseURL = "https://vidsrc.to"

	// vidplaySource is the only source title we know how to resolve
	vidplaySource = "Vidplay"
)

type sourcesResponse struct {
	Result []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"result"`
}

type sourceResponse struct {
	Result struct {
		URL string `json:"url"`
	} `json:"result"`
}

// VidSrcTo resolves IMDb titles through vidsrc.to embeds. Search and
// episode counts come from IMDb.
type VidSrcTo struct {
	*imdb.Catalog

	client  *providerhttp.Client
	logger  *slog.Logger
	decoder decoders.Decoder

	BaseURL  string
	Resolver extractors.Extractor
}

// New creates a vidsrc.to scraper that hands Vidplay embeds to resolver
func New(client *providerhttp.Client, resolver extractors.Extractor, logger *slog.Logger) *VidSrcTo {
	if logger == nil {
		logger = slog.Default()
	}
	return &VidSrcTo{
		Catalog:  imdb.New(client, logger),
		client:   client,
		logger:   logger,
		decoder:  decoders.NewKeyedStream(decoders.VidsrcToKey),
		BaseURL:  DefaultBaseURL,
		Resolver: resolver,
	}
}

func (v *VidSrcTo) Name() string {
	return "vidsrcto"
}

// HealthURL is the page HealthCheck probes
func (v *VidSrcTo) HealthURL() string {
	return v.BaseURL
}

func (v *VidSrcTo) HealthCheck(ctx context.Context) error {
	_, err := v.client.Get(ctx, v.BaseURL, nil)
	return err
}

// Scrape walks embed page → data id → sources → Vidplay source → decoded
// embed URL → resolver, and returns the first resolved stream
func (v *VidSrcTo) Scrape(ctx context.Context, metadata providers.Metadata, episode *providers.EpisodeSelector) (*providers.Stream, error) {
	sel := episode.OrDefault()

	embedURL := fmt.Sprintf("%s/embed/movie/%s", v.BaseURL, metadata.ID)
	if metadata.IsSeries() {
		embedURL = fmt.Sprintf("%s/embed/tv/%s/%d/%d", v.BaseURL, metadata.ID, sel.Season, sel.Episode)
	}

	resp, err := v.client.Get(ctx, embedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embed page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	dataID, ok := doc.Find("a[data-id]").First().Attr("data-id")
	if !ok || dataID == "" {
		return nil, providers.NewScrapeError(v.Name(), "scrape", metadata.Title, providers.ErrNoDataID)
	}
	v.logger.Debug("vidsrcto data id", "title", metadata.Title, "data_id", dataID)

	var sources sourcesResponse
	if err := v.client.GetJSON(ctx, fmt.Sprintf("%s/ajax/embed/episode/%s/sources", v.BaseURL, dataID), nil, &sources); err != nil {
		return nil, fmt.Errorf("failed to fetch sources: %w", err)
	}

	var sourceID string
	for _, s := range sources.Result {
		if s.Title == vidplaySource {
			sourceID = s.ID
			break
		}
	}
	if sourceID == "" {
		return nil, providers.NewScrapeError(v.Name(), "scrape", metadata.Title, providers.ErrNoSources)
	}

	var source sourceResponse
	if err := v.client.GetJSON(ctx, fmt.Sprintf("%s/ajax/embed/source/%s", v.BaseURL, sourceID), nil, &source); err != nil {
		return nil, fmt.Errorf("failed to fetch source %s: %w", sourceID, err)
	}

	vidplayURL, err := v.decoder.Decode(source.Result.URL)
	if err != nil {
		return nil, fmt.Errorf("vidsrcto source url for %s: %w", metadata.Title, err)
	}
	v.logger.Debug("vidsrcto decoded source", "title", metadata.Title, "url", vidplayURL)

	resolved, err := v.Resolver.Extract(ctx, vidplayURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", vidplayURL, err)
	}
	first := resolved.First()
	if first == nil {
		return nil, providers.NewScrapeError(v.Name(), "resolve", metadata.Title, providers.ErrNoSources)
	}

	subtitles := make([]providers.Subtitle, 0, len(resolved.Subtitles))
	for _, s := range resolved.Subtitles {
		subtitles = append(subtitles, providers.Subtitle{
			Language: s.Lang,
			URL:      s.URL,
			Format:   strings.TrimPrefix(path.Ext(s.URL), "."),
		})
	}

	if metadata.IsSeries() {
		return providers.NewSeriesStream(first.URL, metadata, sel, "", subtitles), nil
	}
	return providers.NewMovieStream(first.URL, metadata, "", subtitles), nil
}
