package imdb

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justchokingaround/gscrape/internal/providers"
	"github.com/justchokingaround/gscrape/internal/providers/providertest"
)

const matrixSuggestions = `{
  "d": [
    {"i": {"height": 1000, "imageUrl": "https://m.media-amazon.com/matrix.jpg", "width": 675},
     "id": "tt0133093", "l": "The Matrix", "q": "feature", "qid": "movie", "rank": 207, "s": "Keanu Reeves", "y": 1999},
    {"id": "nm0000206", "l": "Keanu Reeves", "qid": "person", "rank": 50, "s": "Actor, The Matrix"},
    {"id": "tt0106062", "l": "Matrix", "q": "TV series", "qid": "tvSeries", "rank": 9000, "s": "Nick Mancuso"}
  ],
  "q": "matrix",
  "v": 1
}`

func TestCatalog_Search(t *testing.T) {
	client := providertest.NewClient(t, providertest.Route{
		"v2.sg.media-imdb.com/suggestion/m/matrix.json": providertest.JSON(matrixSuggestions),
		"v2.sg.media-imdb.com/suggestion/n/nothing.json": providertest.JSON(`{"q": "nothing", "v": 1}`),
	})
	catalog := New(client, nil)

	t.Run("keeps movies and series in order", func(t *testing.T) {
		results, err := catalog.Search(context.Background(), "matrix", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, providers.Metadata{
			ID:        "tt0133093",
			Title:     "The Matrix",
			Type:      providers.MediaTypeMovie,
			Year:      1999,
			PosterURL: "https://m.media-amazon.com/matrix.jpg",
		}, results[0])

		assert.Equal(t, "tt0106062", results[1].ID)
		assert.Equal(t, providers.MediaTypeSeries, results[1].Type)
		assert.Zero(t, results[1].Year)
	})

	t.Run("never returns more than limit", func(t *testing.T) {
		results, err := catalog.Search(context.Background(), "matrix", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "tt0133093", results[0].ID)
	})

	t.Run("non-positive limit uses the default", func(t *testing.T) {
		results, err := catalog.Search(context.Background(), "matrix", 0)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("missing d array yields no results", func(t *testing.T) {
		results, err := catalog.Search(context.Background(), "nothing", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("rejects empty query", func(t *testing.T) {
		_, err := catalog.Search(context.Background(), "   ", 10)
		assert.Error(t, err)
	})
}

func TestSuggestion_MediaType(t *testing.T) {
	tests := []struct {
		qid    string
		want   providers.MediaType
		wantOK bool
	}{
		{qid: "movie", want: providers.MediaTypeMovie, wantOK: true},
		{qid: "tvSeries", want: providers.MediaTypeSeries, wantOK: true},
		{qid: "tvEpisode"},
		{qid: "person"},
		{qid: ""},
	}
	for _, tt := range tests {
		t.Run(tt.qid, func(t *testing.T) {
			got, ok := Suggestion{Qualifier: tt.qid}.MediaType()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func episodesFixture(items int) string {
	body := `{"pageProps": {"contentData": {"section": {"seasons": [{"value": "1"}, {"value": "2"}, {"value": "All"}, {"value": "3"}], "episodes": {"items": [`
	for i := 0; i < items; i++ {
		if i > 0 {
			body += ","
		}
		body += `{"id": "tt00` + string(rune('0'+i)) + `"}`
	}
	return body + `]}}}}}`
}

func TestCatalog_EpisodeIndex(t *testing.T) {
	breakingBad := providers.Metadata{ID: "tt0903747", Title: "Breaking Bad", Type: providers.MediaTypeSeries}

	t.Run("counts episodes per numeric season", func(t *testing.T) {
		perSeason := map[string]int{"1": 7, "2": 9, "3": 4}
		client := providertest.NewClient(t, providertest.Route{
			"imdb.com/": providertest.HTML(`<script id="__NEXT_DATA__">{"props":{},"buildId":"abc123","isFallback":false}</script>`),
			"www.imdb.com/_next/data/abc123/title/tt0903747/episodes.json": func(w http.ResponseWriter, r *http.Request) {
				season := r.URL.Query().Get("season")
				if season == "" {
					providertest.JSON(episodesFixture(1))(w, r)
					return
				}
				providertest.JSON(episodesFixture(perSeason[season]))(w, r)
			},
		})

		index, err := New(client, nil).EpisodeIndex(context.Background(), breakingBad)
		require.NoError(t, err)
		assert.Equal(t, providers.EpisodeIndex{1: 7, 2: 9, 3: 4}, index)
	})

	t.Run("missing build id", func(t *testing.T) {
		client := providertest.NewClient(t, providertest.Route{
			"imdb.com/": providertest.HTML(`<html>maintenance</html>`),
		})

		_, err := New(client, nil).EpisodeIndex(context.Background(), breakingBad)
		require.Error(t, err)
		assert.ErrorIs(t, err, providers.ErrNoBuildID)
		assert.Contains(t, err.Error(), "Breaking Bad")
	})

	t.Run("movies have no seasons", func(t *testing.T) {
		client := providertest.NewClient(t, providertest.Route{})
		movie := providers.Metadata{ID: "tt0133093", Title: "The Matrix", Type: providers.MediaTypeMovie}

		index, err := New(client, nil).EpisodeIndex(context.Background(), movie)
		require.NoError(t, err)
		assert.Empty(t, index)
	})
}
