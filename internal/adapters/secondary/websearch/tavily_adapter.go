package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vibin/research-pipeline/config"
	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/core/ports"
	"github.com/vibin/research-pipeline/internal/logger"
)

const (
	tavilyBaseURL    = "https://api.tavily.com"
	tavilyMaxResults = 50
)

// tavilySearchRequest is the Tavily API request payload
type tavilySearchRequest struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	MaxResults        int      `json:"max_results"`
	IncludeDomains    []string `json:"include_domains"`
	ExcludeDomains    []string `json:"exclude_domains"`
}

// tavilySearchResponse is the Tavily API response payload
type tavilySearchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
		RawContent    string  `json:"raw_content"`
	} `json:"results"`
}

// TavilyAdapter implements the SearchProviderPort interface using the
// Tavily AI-optimized search API
type TavilyAdapter struct {
	config     *config.SearchConfig
	logger     logger.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewTavilyAdapter creates a new TavilyAdapter
func NewTavilyAdapter(cfg *config.SearchConfig, log logger.Logger) *TavilyAdapter {
	return &TavilyAdapter{
		config: cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		baseURL: tavilyBaseURL,
	}
}

// Name identifies the backend
func (a *TavilyAdapter) Name() domain.Provider {
	return domain.ProviderTavily
}

// Fetch performs one Tavily search call. The result cap is clamped to the
// backend's documented ceiling before the request is sent.
func (a *TavilyAdapter) Fetch(ctx context.Context, query domain.Query) (*ports.ProviderResult, error) {
	a.logger.Info("Performing Tavily search", "query", query.Text, "max_results", query.MaxResults)

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, &domain.ProviderError{
			Provider: domain.ProviderTavily,
			Message:  "rate limiter wait aborted: " + err.Error(),
			Err:      err,
		}
	}

	maxResults := query.MaxResults
	if maxResults > tavilyMaxResults {
		maxResults = tavilyMaxResults
	}

	payload := tavilySearchRequest{
		APIKey:            a.config.TavilyAPIKey,
		Query:             query.Text,
		SearchDepth:       query.Depth,
		IncludeAnswer:     a.config.IncludeAnswer && query.IncludeSummary,
		IncludeRawContent: true,
		MaxResults:        maxResults,
		IncludeDomains:    a.config.IncludeDomains,
		ExcludeDomains:    a.config.ExcludeDomains,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.ProviderError{
			Provider: domain.ProviderTavily,
			Message:  "failed to encode request: " + err.Error(),
			Err:      err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ProviderError{
			Provider: domain.ProviderTavily,
			Message:  "failed to create request: " + err.Error(),
			Err:      err,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection errors land here; the orchestrator
		// treats them the same as any other provider failure
		a.logger.Error("Tavily request failed", "error", err)
		return nil, &domain.ProviderError{
			Provider: domain.ProviderTavily,
			Message:  "request failed: " + err.Error(),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.statusError(resp)
	}

	var tavilyResp tavilySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&tavilyResp); err != nil {
		a.logger.Error("Failed to parse Tavily response", "error", err)
		return nil, &domain.ProviderError{
			Provider: domain.ProviderTavily,
			Message:  "malformed response body: " + err.Error(),
			Err:      err,
		}
	}

	results := make([]domain.Result, 0, len(tavilyResp.Results))
	for _, result := range tavilyResp.Results {
		results = append(results, domain.TavilyResult{
			Title:         result.Title,
			URL:           result.URL,
			Content:       result.Content,
			Score:         result.Score,
			PublishedDate: result.PublishedDate,
			RawContent:    result.RawContent,
			Provider:      domain.ProviderTavily,
		})
	}

	a.logger.Info("Tavily search completed", "results_count", len(results), "has_answer", tavilyResp.Answer != "")
	return &ports.ProviderResult{
		Items:  results,
		Answer: tavilyResp.Answer,
	}, nil
}

// statusError builds the provider error for a non-2xx response, including
// the backend's error body when it is parseable
func (a *TavilyAdapter) statusError(resp *http.Response) *domain.ProviderError {
	message := fmt.Sprintf("API returned %d", resp.StatusCode)

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var errorResp struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &errorResp); err == nil {
		switch {
		case errorResp.Error != "":
			message += ": " + errorResp.Error
		case errorResp.Detail != "":
			message += ": " + errorResp.Detail
		}
	} else if len(body) > 0 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		message += ": " + snippet
	}

	a.logger.Error("Tavily returned non-OK status", "status", resp.StatusCode)
	return &domain.ProviderError{
		Provider:   domain.ProviderTavily,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
