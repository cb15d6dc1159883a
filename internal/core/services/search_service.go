package services

import (
	"context"
	"strings"
	"time"

	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/core/ports"
	"github.com/vibin/research-pipeline/internal/logger"
)

// SearchService orchestrates the search providers: it selects a provider
// for the requested strategy, detects failure or empty results, falls back
// to the secondary provider and assembles the unified result envelope.
// Each Search call is independent; no state survives between calls.
type SearchService struct {
	tavily          ports.SearchProviderPort // nil when not configured
	serp            ports.SearchProviderPort // nil when not configured
	defaultStrategy domain.Strategy
	logger          logger.Logger
}

// NewSearchService creates a new SearchService. Either provider may be nil
// when its API key is not configured.
func NewSearchService(tavily, serp ports.SearchProviderPort, defaultStrategy domain.Strategy, log logger.Logger) *SearchService {
	if defaultStrategy == "" {
		defaultStrategy = domain.StrategyIntelligent
	}
	return &SearchService{
		tavily:          tavily,
		serp:            serp,
		defaultStrategy: defaultStrategy,
		logger:          log,
	}
}

// DefaultStrategy returns the strategy used when a request does not name one
func (s *SearchService) DefaultStrategy() domain.Strategy {
	return s.defaultStrategy
}

// Search runs one search under the given strategy and returns the unified
// envelope. It fails with a *domain.SearchError when no applicable provider
// yields a non-empty result set. Elapsed time is measured here, once, from
// the first provider attempt to the final outcome.
func (s *SearchService) Search(ctx context.Context, query domain.Query, strategy domain.Strategy) (*domain.SearchResults, error) {
	if strategy == "" {
		strategy = s.defaultStrategy
	}
	s.logger.Info("Starting search", "query", query.Text, "strategy", string(strategy), "max_results", query.MaxResults)

	start := time.Now()

	var results *domain.SearchResults
	var err error

	switch strategy {
	case domain.StrategyTavilyOnly:
		results, err = s.searchSingle(ctx, query, s.tavily, domain.ProviderTavily)
	case domain.StrategySerpOnly:
		results, err = s.searchSingle(ctx, query, s.serp, domain.ProviderSerp)
	default:
		results, err = s.searchIntelligent(ctx, query)
	}

	if err != nil {
		s.logger.Error("Search failed", "query", query.Text, "strategy", string(strategy), "error", err)
		return nil, err
	}

	results.SearchTime = time.Since(start).Seconds()
	s.logger.Info("Search completed",
		"query", query.Text,
		"total_results", results.TotalResults,
		"providers_used", providerNames(results.ProvidersUsed),
		"search_time", results.SearchTime,
	)
	return results, nil
}

// searchSingle serves the single-provider strategies. Missing credentials
// and provider failures both propagate immediately; no fallback is tried.
func (s *SearchService) searchSingle(ctx context.Context, query domain.Query, provider ports.SearchProviderPort, name domain.Provider) (*domain.SearchResults, error) {
	if provider == nil {
		return nil, &domain.SearchError{
			Message:  name.DisplayName() + " API key not configured",
			Provider: name,
		}
	}

	fetched, err := provider.Fetch(ctx, query)
	if err != nil {
		return nil, &domain.SearchError{
			Message:  name.DisplayName() + " search failed: " + err.Error(),
			Provider: name,
		}
	}

	results := domain.NewSearchResults(query.Text, fetched.Items, name)
	results.AISummary = fetched.Answer
	return results, nil
}

// searchIntelligent tries Tavily first and falls back to SerpAPI when
// Tavily errors or returns no results. Attempts are strictly sequential;
// the providers are never raced.
func (s *SearchService) searchIntelligent(ctx context.Context, query domain.Query) (*domain.SearchResults, error) {
	var items []domain.Result
	var answer string
	var used domain.Provider

	if s.tavily != nil {
		s.logger.Info("Attempting Tavily search", "query", query.Text)
		fetched, err := s.tavily.Fetch(ctx, query)
		if err != nil {
			s.logger.Warn("Tavily search failed, trying SerpAPI fallback", "error", err)
		} else if len(fetched.Items) == 0 {
			s.logger.Warn("Tavily returned no results, trying SerpAPI fallback", "query", query.Text)
		} else {
			items = fetched.Items
			answer = fetched.Answer
			used = domain.ProviderTavily
			s.logger.Info("Tavily search successful", "results", len(items))
		}
	}

	if len(items) == 0 && s.serp != nil {
		s.logger.Info("Attempting SerpAPI search", "query", query.Text)
		fetched, err := s.serp.Fetch(ctx, query)
		if err != nil {
			s.logger.Error("SerpAPI search also failed", "error", err)
		} else if len(fetched.Items) > 0 {
			items = fetched.Items
			used = domain.ProviderSerp
			s.logger.Info("SerpAPI search successful", "results", len(items))
		}
	}

	if len(items) == 0 {
		configured := s.configuredProviders()
		if len(configured) == 0 {
			// Configuration error, observably distinct from a runtime
			// failure of configured providers
			return nil, &domain.SearchError{Message: "no search providers configured"}
		}
		return nil, &domain.SearchError{
			Message: "all configured providers failed: " + strings.Join(configured, ", "),
		}
	}

	results := domain.NewSearchResults(query.Text, items, used)
	results.AISummary = answer
	return results, nil
}

// configuredProviders lists the display names of providers with credentials
func (s *SearchService) configuredProviders() []string {
	var names []string
	if s.tavily != nil {
		names = append(names, domain.ProviderTavily.DisplayName())
	}
	if s.serp != nil {
		names = append(names, domain.ProviderSerp.DisplayName())
	}
	return names
}

func providerNames(providers []domain.Provider) string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, string(p))
	}
	return strings.Join(names, ",")
}
