package websearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibin/research-pipeline/internal/core/domain"
)

func TestParseOrganicResults(t *testing.T) {
	data := map[string]interface{}{
		"organic_results": []interface{}{
			map[string]interface{}{
				"title":            "Go docs",
				"link":             "https://go.dev/doc",
				"snippet":          "official documentation",
				"position":         float64(1),
				"displayed_link":   "go.dev › doc",
				"cached_page_link": "https://cache.example/go",
			},
			map[string]interface{}{
				"title":   "Effective Go",
				"link":    "https://go.dev/doc/effective_go",
				"snippet": "tips for writing clear Go",
			},
		},
	}

	results := parseOrganicResults(data)

	require.Len(t, results, 2)

	first, ok := results[0].(domain.SerpResult)
	require.True(t, ok)
	assert.Equal(t, "Go docs", first.Title)
	assert.Equal(t, "https://go.dev/doc", first.URL)
	assert.Equal(t, "official documentation", first.Snippet)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, "go.dev › doc", first.DisplayedLink)
	assert.Equal(t, "https://cache.example/go", first.CachedPageLink)
	assert.Equal(t, domain.ProviderSerp, first.Source())

	// missing position falls back to the array index
	second := results[1].(domain.SerpResult)
	assert.Equal(t, 2, second.Position)
	assert.Empty(t, second.DisplayedLink)
}

func TestParseOrganicResultsMissingOrMalformed(t *testing.T) {
	assert.Nil(t, parseOrganicResults(map[string]interface{}{}))
	assert.Nil(t, parseOrganicResults(map[string]interface{}{"organic_results": "not an array"}))

	// non-map entries are skipped, not fatal
	results := parseOrganicResults(map[string]interface{}{
		"organic_results": []interface{}{
			"garbage",
			map[string]interface{}{"title": "kept", "link": "https://kept.example"},
		},
	})
	require.Len(t, results, 1)
	assert.Equal(t, "kept", results[0].ResultTitle())
}

func TestTimePeriodFilters(t *testing.T) {
	cases := map[string]string{
		"hour":  "qdr:h",
		"day":   "qdr:d",
		"week":  "qdr:w",
		"month": "qdr:m",
		"year":  "qdr:y",
	}
	for period, want := range cases {
		assert.Equal(t, want, timePeriodFilters[period])
	}
	_, ok := timePeriodFilters[""]
	assert.False(t, ok)
}

func TestSerpFetchHonorsCancelledContext(t *testing.T) {
	cfg := testSearchConfig()
	cfg.SerpAPIKey = "serp-key"
	adapter := NewSerpAPIAdapter(cfg, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.Fetch(ctx, mustQuery(t, 5))

	require.Error(t, err)
	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, domain.ProviderSerp, provErr.Provider)
}
