package vadapav

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justchokingaround/gscrape/internal/providers"
	"github.com/justchokingaround/gscrape/internal/providers/providertest"
)

func newTestScraper(t *testing.T, routes providertest.Route) *Vadapav {
	t.Helper()
	return New(providertest.NewClient(t, routes), nil)
}

var showRoutes = providertest.Route{
	"vadapav.mov/api/d/X": providertest.JSON(`{"data": {"files": [
		{"id": "S1", "name": "Season 1", "dir": true, "parent": "X"},
		{"id": "S2", "name": "Season 2", "dir": true, "parent": "X"}
	]}}`),
	"vadapav.mov/api/d/S1": providertest.JSON(`{"data": {"files": [
		{"id": "E8ID", "name": "Show.S01E08.mkv", "dir": false, "parent": "S1"},
		{"id": "SUB9", "name": "Show.S01E09.en.srt", "dir": false, "parent": "S1"},
		{"id": "E9ID", "name": "Show.S01E09.mkv", "dir": false, "parent": "S1"},
		{"id": "E10ID", "name": "Show.S01E10.mkv", "dir": false, "parent": "S1"}
	]}}`),
	"vadapav.mov/api/d/S2": providertest.JSON(`{"data": {"files": [
		{"id": "S2E1", "name": "Show.S02E01.mkv", "dir": false, "parent": "S2"}
	]}}`),
}

func TestVadapav_ScrapeSeries(t *testing.T) {
	scraper := newTestScraper(t, showRoutes)
	show := providers.Metadata{ID: "X", Title: "Show", Type: providers.MediaTypeSeries}

	t.Run("resolves season 1 episode 9", func(t *testing.T) {
		stream, err := scraper.Scrape(context.Background(), show, &providers.EpisodeSelector{Season: 1, Episode: 9})
		require.NoError(t, err)

		assert.Equal(t, "https://vadapav.mov/f/E9ID", stream.URL)
		assert.Equal(t, "Show", stream.Title)
		assert.Equal(t, "https://vadapav.mov", stream.Referrer)
		assert.Equal(t, providers.MediaTypeSeries, stream.Type)
		assert.Equal(t, 1, stream.Season)
		assert.Equal(t, 9, stream.Episode)
		assert.Equal(t, []providers.Subtitle{
			{Language: "en", URL: "https://vadapav.mov/f/SUB9", Format: "srt"},
		}, stream.Subtitles)
	})

	t.Run("two digit episodes use the unpadded label", func(t *testing.T) {
		stream, err := scraper.Scrape(context.Background(), show, &providers.EpisodeSelector{Season: 1, Episode: 10})
		require.NoError(t, err)
		assert.Equal(t, "https://vadapav.mov/f/E10ID", stream.URL)
	})

	t.Run("missing selector defaults to S01E01", func(t *testing.T) {
		_, err := scraper.Scrape(context.Background(), show, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, providers.ErrNoEpisode)
		assert.Contains(t, err.Error(), "E01")
	})

	t.Run("season beyond the listing", func(t *testing.T) {
		_, err := scraper.Scrape(context.Background(), show, &providers.EpisodeSelector{Season: 5, Episode: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, providers.ErrNoSeason)

		var scrapeErr *providers.ScrapeError
		require.ErrorAs(t, err, &scrapeErr)
		assert.Equal(t, "Show", scrapeErr.Title)
	})
}

func TestVadapav_ScrapeMovie(t *testing.T) {
	scraper := newTestScraper(t, providertest.Route{
		"vadapav.mov/api/d/M": providertest.JSON(`{"data": {"files": [
			{"id": "EXTRAS", "name": "Extras", "dir": true},
			{"id": "SUBS", "name": "Inception.2010.srt", "dir": false},
			{"id": "FILE1", "name": "Inception.2010.1080p.mkv", "dir": false},
			{"id": "FILE2", "name": "Inception.2010.720p.mkv", "dir": false}
		]}}`),
		"vadapav.mov/api/d/EMPTY": providertest.JSON(`{"data": {"files": [{"id": "D", "name": "Extras", "dir": true}]}}`),
	})

	t.Run("first playable file", func(t *testing.T) {
		movie := providers.Metadata{ID: "M", Title: "Inception", Type: providers.MediaTypeMovie, Year: 2010}
		stream, err := scraper.Scrape(context.Background(), movie, nil)
		require.NoError(t, err)

		assert.Equal(t, "https://vadapav.mov/f/FILE1", stream.URL)
		assert.Equal(t, 2010, stream.Year)
		assert.Equal(t, providers.MediaTypeMovie, stream.Type)
		require.Len(t, stream.Subtitles, 1)
		assert.Equal(t, "https://vadapav.mov/f/SUBS", stream.Subtitles[0].URL)
	})

	t.Run("no files", func(t *testing.T) {
		movie := providers.Metadata{ID: "EMPTY", Title: "Nothing", Type: providers.MediaTypeMovie}
		_, err := scraper.Scrape(context.Background(), movie, nil)
		assert.ErrorIs(t, err, providers.ErrNoFiles)
	})
}

func TestVadapav_Search(t *testing.T) {
	scraper := newTestScraper(t, providertest.Route{
		"vadapav.mov/api/s/breaking": providertest.JSON(`{"data": [
			{"id": "A", "name": "Breaking Bad (2008)", "dir": true, "parent": "root", "mtime": "2024-01-02T03:04:05Z"},
			{"id": "F", "name": "breaking.txt", "dir": false, "parent": "root"},
			{"id": "B", "name": "Breaking (2019)", "dir": true, "parent": "root"}
		]}`),
		"vadapav.mov/api/d/A": providertest.JSON(`{"data": {"files": [{"id": "A1", "name": "Season 1", "dir": true}]}}`),
		"vadapav.mov/api/d/B": providertest.JSON(`{"data": {"files": [{"id": "B1", "name": "Breaking.2019.mkv", "dir": false}]}}`),
	})

	t.Run("classifies by child names", func(t *testing.T) {
		results, err := scraper.Search(context.Background(), "breaking", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, providers.Metadata{
			ID:        "A",
			Title:     "Breaking Bad (2008)",
			Type:      providers.MediaTypeSeries,
			Year:      2008,
			UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}, results[0])

		assert.Equal(t, "B", results[1].ID)
		assert.Equal(t, providers.MediaTypeMovie, results[1].Type)
		assert.Equal(t, 2019, results[1].Year)
		assert.True(t, results[1].UpdatedAt.IsZero())
	})

	t.Run("stops at limit", func(t *testing.T) {
		results, err := scraper.Search(context.Background(), "breaking", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "A", results[0].ID)
	})
}

func TestVadapav_EpisodeIndex(t *testing.T) {
	scraper := newTestScraper(t, showRoutes)

	t.Run("counts entries per season directory", func(t *testing.T) {
		index, err := scraper.EpisodeIndex(context.Background(), providers.Metadata{ID: "X", Title: "Show", Type: providers.MediaTypeSeries})
		require.NoError(t, err)
		assert.Equal(t, providers.EpisodeIndex{1: 4, 2: 1}, index)
	})

	t.Run("movies have no seasons", func(t *testing.T) {
		index, err := scraper.EpisodeIndex(context.Background(), providers.Metadata{ID: "X", Type: providers.MediaTypeMovie})
		require.NoError(t, err)
		assert.Empty(t, index)
	})
}

func TestEpisodeLabel(t *testing.T) {
	assert.Equal(t, "E01", episodeLabel(1))
	assert.Equal(t, "E09", episodeLabel(9))
	assert.Equal(t, "E12", episodeLabel(12))
	assert.Equal(t, "E100", episodeLabel(100))
}

func TestSubtitleLanguage(t *testing.T) {
	assert.Equal(t, "en", subtitleLanguage("Show.S01E09.en.srt"))
	assert.Equal(t, "eng", subtitleLanguage("Show.S01E09.ENG.srt"))
	assert.Equal(t, "unknown", subtitleLanguage("Show.S01E09.srt"))
}
