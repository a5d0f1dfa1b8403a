package vidsrcme

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/justchokingaround/gscrape/internal/providers"
	providerhttp "github.com/justchokingaround/gscrape/internal/providers/http"
	"github.com/justchokingaround/gscrape/internal/providers/imdb"
	"github.com/justchokingaround/gscrape/pkg/decoders"
)

const (
	DefaultBaseURL = "https://vidsrc.net"

	// Referrer is required by the rcp hosts and by the final stream
	Referrer = "https://vidsrc.stream/"
)

var playerFilePattern = regexp.MustCompile(`file:"#9(.*?)"`)

// VidSrcMe resolves IMDb titles through vidsrc.net embeds
type VidSrcMe struct {
	*imdb.Catalog

	client *providerhttp.Client
	logger *slog.Logger
	player decoders.Decoder

	BaseURL string
}

// New creates a vidsrc.me scraper
func New(client *providerhttp.Client, logger *slog.Logger) *VidSrcMe {
	if logger == nil {
		logger = slog.Default()
	}
	return &VidSrcMe{
		Catalog: imdb.New(client, logger),
		client:  client,
		logger:  logger,
		player:  decoders.PlayerFile{},
		BaseURL: DefaultBaseURL,
	}
}

func (v *VidSrcMe) Name() string {
	return "vidsrcme"
}

// HealthURL is the page HealthCheck probes
func (v *VidSrcMe) HealthURL() string {
	return v.BaseURL
}

func (v *VidSrcMe) HealthCheck(ctx context.Context) error {
	_, err := v.client.Get(ctx, v.BaseURL, nil)
	return err
}

// Scrape follows embed → player iframe → rcp redirect → prorcp page and
// decodes the Playerjs file payload
func (v *VidSrcMe) Scrape(ctx context.Context, metadata providers.Metadata, episode *providers.EpisodeSelector) (*providers.Stream, error) {
	sel := episode.OrDefault()

	embedURL := fmt.Sprintf("%s/embed/movie/%s", v.BaseURL, metadata.ID)
	if metadata.IsSeries() {
		embedURL = fmt.Sprintf("%s/embed/tv/%s/%d-%d", v.BaseURL, metadata.ID, sel.Season, sel.Episode)
	}

	embed, err := v.document(ctx, embedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embed page: %w", err)
	}

	src, ok := embed.Find("iframe#player_iframe").First().Attr("src")
	if !ok || src == "" {
		return nil, v.fail("scrape", metadata, providers.ErrNoIframe)
	}
	iframeURL := absolute(src)

	iframe, err := v.document(ctx, iframeURL, map[string]string{"Referer": embedURL})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player iframe: %w", err)
	}

	index, hasIndex := iframe.Find("body").First().Attr("data-i")
	hash, hasHash := iframe.Find("div#hidden").First().Attr("data-h")
	if !hasIndex || !hasHash || hash == "" {
		return nil, v.fail("scrape", metadata, providers.ErrNoHash)
	}

	decoded, err := decoders.NewIndexXOR(index).Decode(hash)
	if err != nil {
		return nil, fmt.Errorf("vidsrcme rcp hash for %s: %w", metadata.Title, err)
	}
	rcpURL := absolute(strings.ReplaceAll(decoded, "vidsrc.stream", "vidsrc.net"))
	v.logger.Debug("vidsrcme rcp url", "title", metadata.Title, "url", rcpURL)

	headers := map[string]string{"Referer": Referrer}

	resp, err := v.client.GetNoRedirect(ctx, rcpURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rcp page: %w", err)
	}
	location := resp.Header().Get("Location")
	if location == "" {
		return nil, v.fail("redirect", metadata, providers.ErrNoRedirect)
	}
	prorcpURL, err := resolveReference(rcpURL, location)
	if err != nil {
		return nil, fmt.Errorf("bad redirect location %q: %w", location, err)
	}

	prorcp, err := v.document(ctx, prorcpURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prorcp page: %w", err)
	}

	var payload string
	prorcp.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "Playerjs") {
			return true
		}
		if m := playerFilePattern.FindStringSubmatch(text); m != nil {
			payload = m[1]
		}
		return false
	})
	if payload == "" {
		return nil, v.fail("player", metadata, providers.ErrNoPlayer)
	}

	streamURL, err := v.player.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("vidsrcme player file for %s: %w", metadata.Title, err)
	}

	if metadata.IsSeries() {
		return providers.NewSeriesStream(streamURL, metadata, sel, Referrer, nil), nil
	}
	return providers.NewMovieStream(streamURL, metadata, Referrer, nil), nil
}

func (v *VidSrcMe) document(ctx context.Context, pageURL string, headers map[string]string) (*goquery.Document, error) {
	resp, err := v.client.Get(ctx, pageURL, headers)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func (v *VidSrcMe) fail(op string, metadata providers.Metadata, err error) error {
	return providers.NewScrapeError(v.Name(), op, metadata.Title, err)
}

// absolute turns a protocol-relative URL into an https one
func absolute(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

func resolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
