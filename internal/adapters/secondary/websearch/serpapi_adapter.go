package websearch

import (
	"context"
	"fmt"
	"strconv"

	serpapi "github.com/serpapi/google-search-results-golang"
	"golang.org/x/time/rate"

	"github.com/vibin/research-pipeline/config"
	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/core/ports"
	"github.com/vibin/research-pipeline/internal/logger"
)

// serpMaxResults is Google's documented result ceiling
const serpMaxResults = 100

// timePeriodFilters maps semantic recency periods onto Google's tbs syntax
var timePeriodFilters = map[string]string{
	"hour":  "qdr:h",
	"day":   "qdr:d",
	"week":  "qdr:w",
	"month": "qdr:m",
	"year":  "qdr:y",
}

// SerpAPIAdapter implements the SearchProviderPort interface using SerpAPI
// for Google search results
type SerpAPIAdapter struct {
	config  *config.SearchConfig
	logger  logger.Logger
	limiter *rate.Limiter
}

// NewSerpAPIAdapter creates a new SerpAPIAdapter
func NewSerpAPIAdapter(cfg *config.SearchConfig, log logger.Logger) *SerpAPIAdapter {
	return &SerpAPIAdapter{
		config:  cfg,
		logger:  log,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
	}
}

// Name identifies the backend
func (a *SerpAPIAdapter) Name() domain.Provider {
	return domain.ProviderSerp
}

// Fetch performs one Google search via SerpAPI
func (a *SerpAPIAdapter) Fetch(ctx context.Context, query domain.Query) (*ports.ProviderResult, error) {
	a.logger.Info("Performing SerpAPI search", "query", query.Text, "max_results", query.MaxResults)

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, &domain.ProviderError{
			Provider: domain.ProviderSerp,
			Message:  "rate limiter wait aborted: " + err.Error(),
			Err:      err,
		}
	}

	maxResults := query.MaxResults
	if maxResults > serpMaxResults {
		maxResults = serpMaxResults
	}

	parameters := map[string]string{
		"q":             query.Text,
		"engine":        "google",
		"google_domain": "google.com",
		"num":           strconv.Itoa(maxResults),
		"gl":            a.config.Country,
		"hl":            a.config.Language,
		"safe":          a.config.SafeSearch,
	}
	if tbs, ok := timePeriodFilters[a.config.TimePeriod]; ok {
		parameters["tbs"] = tbs
	}

	// The SerpAPI client does not accept a context, so honor cancellation
	// before the blocking call
	if err := ctx.Err(); err != nil {
		return nil, &domain.ProviderError{
			Provider: domain.ProviderSerp,
			Message:  "request aborted: " + err.Error(),
			Err:      err,
		}
	}

	client := serpapi.NewGoogleSearch(parameters, a.config.SerpAPIKey)
	data, err := client.GetJSON()
	if err != nil {
		a.logger.Error("SerpAPI search failed", "error", err)
		return nil, &domain.ProviderError{
			Provider: domain.ProviderSerp,
			Message:  "request failed: " + err.Error(),
			Err:      err,
		}
	}

	// SerpAPI reports some failures inside a 200 body
	if errMsg, ok := data["error"].(string); ok && errMsg != "" {
		a.logger.Error("SerpAPI returned an error", "error", errMsg)
		return nil, &domain.ProviderError{
			Provider: domain.ProviderSerp,
			Message:  fmt.Sprintf("API error: %s", errMsg),
		}
	}

	results := parseOrganicResults(data)
	a.logger.Info("SerpAPI search completed", "results_count", len(results))
	return &ports.ProviderResult{Items: results}, nil
}

// parseOrganicResults maps the organic_results array into the common
// result shape. Missing optional fields default to empty, never error.
func parseOrganicResults(data map[string]interface{}) []domain.Result {
	organic, ok := data["organic_results"].([]interface{})
	if !ok {
		return nil
	}

	results := make([]domain.Result, 0, len(organic))
	for i, raw := range organic {
		resultMap, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		position := getIntValue(resultMap, "position")
		if position == 0 {
			position = i + 1
		}

		results = append(results, domain.SerpResult{
			Title:          getStringValue(resultMap, "title"),
			URL:            getStringValue(resultMap, "link"),
			Snippet:        getStringValue(resultMap, "snippet"),
			Position:       position,
			DisplayedLink:  getStringValue(resultMap, "displayed_link"),
			CachedPageLink: getStringValue(resultMap, "cached_page_link"),
			Provider:       domain.ProviderSerp,
		})
	}
	return results
}

// getStringValue safely extracts a string value from a decoded JSON map
func getStringValue(data map[string]interface{}, key string) string {
	if value, ok := data[key]; ok {
		if strValue, ok := value.(string); ok {
			return strValue
		}
	}
	return ""
}

// getIntValue safely extracts a numeric value from a decoded JSON map
func getIntValue(data map[string]interface{}, key string) int {
	if value, ok := data[key]; ok {
		if floatValue, ok := value.(float64); ok {
			return int(floatValue)
		}
	}
	return 0
}
