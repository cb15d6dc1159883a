package domain

import (
	"fmt"
	"strings"
	"time"
)

// Provider identifies an external search backend
type Provider string

const (
	ProviderTavily Provider = "tavily"
	ProviderSerp   Provider = "serp"
)

// DisplayName returns the human-readable provider name used in error messages
func (p Provider) DisplayName() string {
	switch p {
	case ProviderTavily:
		return "Tavily"
	case ProviderSerp:
		return "SerpAPI"
	default:
		return string(p)
	}
}

// Strategy governs which providers a search will try and in what order
type Strategy string

const (
	StrategyIntelligent Strategy = "intelligent"
	StrategyTavilyOnly  Strategy = "tavily_only"
	StrategySerpOnly    Strategy = "serp_only"
)

// Search depth values accepted by Query.Depth
const (
	DepthBasic    = "basic"
	DepthAdvanced = "advanced"
)

// MaxQueryResults is the upper bound accepted for Query.MaxResults
const MaxQueryResults = 50

// Query is a validated search request. Construct it with NewQuery.
type Query struct {
	Text           string `json:"query"`
	MaxResults     int    `json:"max_results"`
	Depth          string `json:"depth"`
	IncludeSummary bool   `json:"include_summary"`
}

// NewQuery validates and builds a Query. Depth defaults to advanced and
// MaxResults to 10 when zero.
func NewQuery(text string, maxResults int, depth string) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("query text must not be empty")
	}
	if maxResults == 0 {
		maxResults = 10
	}
	if maxResults < 1 || maxResults > MaxQueryResults {
		return Query{}, fmt.Errorf("max_results must be between 1 and %d, got %d", MaxQueryResults, maxResults)
	}
	if depth == "" {
		depth = DepthAdvanced
	}
	if depth != DepthBasic && depth != DepthAdvanced {
		return Query{}, fmt.Errorf("depth must be %q or %q, got %q", DepthBasic, DepthAdvanced, depth)
	}
	return Query{
		Text:           text,
		MaxResults:     maxResults,
		Depth:          depth,
		IncludeSummary: true,
	}, nil
}

// Result is the common surface shared by provider-specific result variants
type Result interface {
	ResultTitle() string
	ResultURL() string
	// DisplayText returns the textual excerpt for the result: full content
	// for Tavily, snippet for SerpAPI
	DisplayText() string
	Source() Provider
}

// TavilyResult is a search result from the Tavily API (AI-optimized).
// Fields outside this set are dropped during normalization.
type TavilyResult struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Content       string   `json:"content"`
	Score         float64  `json:"score"`
	PublishedDate string   `json:"published_date,omitempty"`
	RawContent    string   `json:"raw_content,omitempty"`
	Provider      Provider `json:"provider"`
}

func (r TavilyResult) ResultTitle() string { return r.Title }
func (r TavilyResult) ResultURL() string   { return r.URL }
func (r TavilyResult) DisplayText() string { return r.Content }
func (r TavilyResult) Source() Provider    { return ProviderTavily }

// SerpResult is a search result from SerpAPI (Google search)
type SerpResult struct {
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Snippet        string   `json:"snippet"`
	Position       int      `json:"position"`
	DisplayedLink  string   `json:"displayed_link,omitempty"`
	CachedPageLink string   `json:"cached_page_link,omitempty"`
	Provider       Provider `json:"provider"`
}

func (r SerpResult) ResultTitle() string { return r.Title }
func (r SerpResult) ResultURL() string   { return r.URL }
func (r SerpResult) DisplayText() string { return r.Snippet }
func (r SerpResult) Source() Provider    { return ProviderSerp }

// SearchResults is the unified result envelope produced once per search.
// It is immutable after construction from the caller's point of view.
type SearchResults struct {
	Query         string     `json:"query"`
	Results       []Result   `json:"results"`
	TotalResults  int        `json:"total_results"`
	SearchTime    float64    `json:"search_time"`
	ProvidersUsed []Provider `json:"providers_used"`
	AISummary     string     `json:"ai_summary,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// NewSearchResults builds the envelope from provider items, preserving the
// provider-returned order. ProvidersUsed lists only providers whose results
// were actually kept.
func NewSearchResults(query string, results []Result, providers ...Provider) *SearchResults {
	used := providers
	if len(results) == 0 {
		used = nil
	}
	return &SearchResults{
		Query:         query,
		Results:       results,
		TotalResults:  len(results),
		ProvidersUsed: used,
		Timestamp:     time.Now(),
	}
}

// Sources returns the result URLs in envelope order
func (r *SearchResults) Sources() []string {
	sources := make([]string, 0, len(r.Results))
	for _, result := range r.Results {
		sources = append(sources, result.ResultURL())
	}
	return sources
}

// SearchError is the aggregate failure raised when no provider yields a
// usable result set, or when the selected strategy is missing credentials
type SearchError struct {
	Message  string
	Provider Provider // originating provider, empty for aggregate failures
}

func (e *SearchError) Error() string {
	return e.Message
}

// ProviderError classifies a single backend failure: non-2xx status,
// timeout, connection error or malformed body. The orchestrator treats all
// of them uniformly when deciding whether to fall back.
type ProviderError struct {
	Provider   Provider
	StatusCode int // 0 for transport-level failures
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider.DisplayName(), e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider.DisplayName(), e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// SummaryError marks a text-transform failure. It is reported separately
// from search failures so callers can tell "search worked, summarization
// failed" apart from "search itself failed".
type SummaryError struct {
	Err error
}

func (e *SummaryError) Error() string {
	return "summarization failed: " + e.Err.Error()
}

func (e *SummaryError) Unwrap() error {
	return e.Err
}
