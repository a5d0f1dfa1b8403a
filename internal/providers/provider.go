package providers

import (
	"context"
	"sort"
	"time"
)

// Scraper is the contract every site adapter implements
type Scraper interface {
	// Metadata
	Name() string

	// Search and discovery
	Search(ctx context.Context, query string, limit int) ([]Metadata, error)

	// Season/episode structure, built fresh on every call
	EpisodeIndex(ctx context.Context, metadata Metadata) (EpisodeIndex, error)

	// Stream URLs
	Scrape(ctx context.Context, metadata Metadata, episode *EpisodeSelector) (*Stream, error)

	// Health check
	HealthCheck(ctx context.Context) error
}

// HealthURLer is implemented by scrapers that can name the URL their
// health check probes
type HealthURLer interface {
	HealthURL() string
}

// DefaultSearchLimit is used when a caller passes a non-positive limit
const DefaultSearchLimit = 10

// MediaType represents the type of media content
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// Metadata identifies a title on the site that produced it.
// ID is opaque and must be passed back to the same scraper unchanged.
type Metadata struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      MediaType `json:"type"`
	Year      int       `json:"year,omitempty"` // 0 when the source omits it
	PosterURL string    `json:"poster_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// IsSeries reports whether the title has seasons
func (m Metadata) IsSeries() bool {
	return m.Type == MediaTypeSeries
}

// EpisodeSelector picks a season and episode, both 1-based
type EpisodeSelector struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

// OrDefault resolves a missing selector (or missing fields) to season 1, episode 1
func (e *EpisodeSelector) OrDefault() EpisodeSelector {
	sel := EpisodeSelector{Season: 1, Episode: 1}
	if e == nil {
		return sel
	}
	if e.Season > 0 {
		sel.Season = e.Season
	}
	if e.Episode > 0 {
		sel.Episode = e.Episode
	}
	return sel
}

// EpisodeIndex maps a season number to its episode count
type EpisodeIndex map[int]int

// Seasons returns the season numbers in ascending order
func (e EpisodeIndex) Seasons() []int {
	seasons := make([]int, 0, len(e))
	for s := range e {
		seasons = append(seasons, s)
	}
	sort.Ints(seasons)
	return seasons
}

// Stream is the playable result handed back to the host
type Stream struct {
	URL       string     `json:"url"`
	Title     string     `json:"title"`
	Referrer  string     `json:"referrer"`
	Type      MediaType  `json:"type"`
	Year      int        `json:"year,omitempty"`
	Season    int        `json:"season,omitempty"`
	Episode   int        `json:"episode,omitempty"`
	Subtitles []Subtitle `json:"subtitles,omitempty"`
}

// NewMovieStream builds the stream record for a movie
func NewMovieStream(url string, metadata Metadata, referrer string, subtitles []Subtitle) *Stream {
	return &Stream{
		URL:       url,
		Title:     metadata.Title,
		Referrer:  referrer,
		Type:      MediaTypeMovie,
		Year:      metadata.Year,
		Subtitles: subtitles,
	}
}

// NewSeriesStream builds the stream record for one episode of a series
func NewSeriesStream(url string, metadata Metadata, episode EpisodeSelector, referrer string, subtitles []Subtitle) *Stream {
	return &Stream{
		URL:       url,
		Title:     metadata.Title,
		Referrer:  referrer,
		Type:      MediaTypeSeries,
		Season:    episode.Season,
		Episode:   episode.Episode,
		Subtitles: subtitles,
	}
}

// Subtitle represents a subtitle track
type Subtitle struct {
	Language string `json:"language"`
	URL      string `json:"url"`
	Format   string `json:"format"` // srt, vtt, ass
}

// HealthCheckResult holds detailed health check information
type HealthCheckResult struct {
	URL         string
	CurlCommand string
	StatusCode  int
	Duration    time.Duration
	Error       string
	CheckedAt   time.Time
}

// ProviderStatus holds the health status of a scraper
type ProviderStatus struct {
	ProviderName string
	Healthy      bool
	Status       string // e.g., "Online", "Offline: ...", "Checking..."
	LastCheck    time.Time
	LastResult   *HealthCheckResult
}

// ParseMediaType parses a media type string
func ParseMediaType(s string) (MediaType, error) {
	switch s {
	case "movie", "movies", "film":
		return MediaTypeMovie, nil
	case "series", "tv", "show", "tvSeries":
		return MediaTypeSeries, nil
	default:
		return "", &ErrInvalidMediaType{MediaType: s}
	}
}

// String returns the string representation of MediaType
func (t MediaType) String() string {
	return string(t)
}

// ErrInvalidMediaType is returned when an unknown media type string is provided
type ErrInvalidMediaType struct {
	MediaType string
}

func (e *ErrInvalidMediaType) Error() string {
	return "invalid media type: " + e.MediaType
}
