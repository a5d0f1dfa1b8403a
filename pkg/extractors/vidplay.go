package extractors

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	providerhttp "github.com/justchokingaround/gscrape/internal/providers/http"
	"github.com/justchokingaround/gscrape/pkg/decoders"
	"github.com/justchokingaround/gscrape/pkg/types"
)

const (
	DefaultVidPlayURL  = "https://vidplay.online"
	DefaultVidPlayKeys = "https://raw.githubusercontent.com/Ciarands/vidsrc-keys/main/keys.json"
)

var futokenKey = regexp.MustCompile(`var\s+k\s*=\s*'([^']+)'`)

// VidPlayExtractor resolves vidplay embed URLs (https://vidplay.online/e/<id>?...)
// into their HLS sources and subtitle tracks
type VidPlayExtractor struct {
	client *providerhttp.Client
	logger *slog.Logger

	BaseURL string
	KeysURL string
}

// NewVidPlayExtractor creates a new VidPlay extractor
func NewVidPlayExtractor(client *providerhttp.Client, logger *slog.Logger) *VidPlayExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &VidPlayExtractor{
		client:  client,
		logger:  logger,
		BaseURL: DefaultVidPlayURL,
		KeysURL: DefaultVidPlayKeys,
	}
}

// Extract extracts video sources from a vidplay embed URL
func (v *VidPlayExtractor) Extract(ctx context.Context, embedURL string) (*types.VideoSources, error) {
	parsed, err := url.Parse(embedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid vidplay url %q: %w", embedURL, err)
	}

	id := parsed.Path
	if i := strings.LastIndex(id, "/e/"); i >= 0 {
		id = id[i+len("/e/"):]
	}
	id = strings.Trim(id, "/")
	if id == "" {
		return nil, fmt.Errorf("vidplay url %q has no embed id", embedURL)
	}

	keys, err := v.keys(ctx)
	if err != nil {
		return nil, err
	}

	encodedID, err := EncodeVidPlayID(id, keys[0], keys[1])
	if err != nil {
		return nil, err
	}

	futoken, err := v.futoken(ctx, encodedID, embedURL)
	if err != nil {
		return nil, err
	}

	mediaURL := fmt.Sprintf("%s/mediainfo/%s?%s&autostart=true", v.BaseURL, futoken, parsed.RawQuery)

	var info struct {
		Result json.RawMessage `json:"result"`
	}
	if err := v.client.GetJSON(ctx, mediaURL, map[string]string{"Referer": embedURL}, &info); err != nil {
		return nil, fmt.Errorf("failed fetching vidplay media info: %w", err)
	}

	// result is an object on success and a bare status code otherwise
	var result struct {
		Sources []struct {
			File string `json:"file"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(info.Result, &result); err != nil {
		return nil, fmt.Errorf("vidplay returned no media info (result: %s)", string(info.Result))
	}

	referer := fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host)
	var sources []types.Source
	for _, s := range result.Sources {
		if s.File == "" {
			continue
		}
		sources = append(sources, types.Source{
			URL:     s.File,
			Quality: "auto",
			IsM3U8:  strings.Contains(s.File, ".m3u8"),
			Referer: referer,
		})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no video sources found in vidplay response")
	}

	subtitles, err := v.subtitles(ctx, parsed.Query().Get("sub.info"))
	if err != nil {
		// subtitle failures do not fail the extraction
		v.logger.Warn("failed to fetch vidplay subtitles", "error", err)
	}

	return &types.VideoSources{
		Sources:   sources,
		Subtitles: subtitles,
	}, nil
}

func (v *VidPlayExtractor) keys(ctx context.Context) ([2]string, error) {
	var keys []string
	if err := v.client.GetJSON(ctx, v.KeysURL, nil, &keys); err != nil {
		return [2]string{}, fmt.Errorf("failed fetching vidplay keys: %w", err)
	}
	if len(keys) < 2 || keys[0] == "" || keys[1] == "" {
		return [2]string{}, fmt.Errorf("vidplay keys: expected 2 keys, got %d", len(keys))
	}
	return [2]string{keys[0], keys[1]}, nil
}

// futoken builds "<k>,<n1>,<n2>,..." where k comes from the futoken script
// and n_i = k[i mod len(k)] + encodedID[i]
func (v *VidPlayExtractor) futoken(ctx context.Context, encodedID, embedURL string) (string, error) {
	resp, err := v.client.Get(ctx, v.BaseURL+"/futoken", map[string]string{"Referer": embedURL})
	if err != nil {
		return "", fmt.Errorf("failed fetching vidplay futoken: %w", err)
	}

	match := futokenKey.FindStringSubmatch(resp.String())
	if match == nil {
		return "", fmt.Errorf("vidplay futoken script has no key")
	}
	return BuildFutoken(match[1], encodedID), nil
}

func (v *VidPlayExtractor) subtitles(ctx context.Context, subURL string) ([]types.Subtitle, error) {
	if subURL == "" {
		return nil, nil
	}

	var tracks []struct {
		File  string `json:"file"`
		Label string `json:"label"`
		Kind  string `json:"kind"`
	}
	if err := v.client.GetJSON(ctx, subURL, nil, &tracks); err != nil {
		return nil, err
	}

	var subtitles []types.Subtitle
	for _, t := range tracks {
		if t.File == "" || (t.Kind != "" && t.Kind != "captions" && t.Kind != "subtitles") {
			continue
		}
		subtitles = append(subtitles, types.Subtitle{
			URL:   t.File,
			Lang:  strings.ToLower(t.Label),
			Label: t.Label,
		})
	}
	return subtitles, nil
}

// EncodeVidPlayID runs the embed id through RC4 with both keys and
// base64 encodes the result with '/' swapped for '_'
func EncodeVidPlayID(id, key1, key2 string) (string, error) {
	first, err := decoders.RC4([]byte(key1), []byte(id))
	if err != nil {
		return "", err
	}
	second, err := decoders.RC4([]byte(key2), first)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(base64.StdEncoding.EncodeToString(second), "/", "_"), nil
}

// BuildFutoken combines the futoken key with the encoded id
func BuildFutoken(key, encodedID string) string {
	k := []rune(key)
	var b strings.Builder
	b.WriteString(key)
	for i, r := range []rune(encodedID) {
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(int(k[i%len(k)]) + int(r)))
	}
	return b.String()
}
