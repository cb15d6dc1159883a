package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/core/ports"
	"github.com/vibin/research-pipeline/internal/logger"
)

// ResearchData is the payload of a successful research run
type ResearchData struct {
	Summary       string                `json:"summary,omitempty"`
	SearchResults *domain.SearchResults `json:"search_results"`
	Sources       []string              `json:"sources"`
	Query         string                `json:"query"`
	EmailDraft    *domain.EmailDraft    `json:"email_draft,omitempty"`
}

// ResearchService runs the full pipeline: search, LLM summarization and
// optional email draft creation, wrapped into the response envelope.
type ResearchService struct {
	search  *SearchService
	llm     ports.LLMPort
	email   *EmailService              // nil when email is disabled
	history ports.HistoryRepositoryPort // nil when history is disabled
	logger  logger.Logger
}

// NewResearchService creates a new ResearchService. email and history may
// be nil when the corresponding features are disabled.
func NewResearchService(search *SearchService, llm ports.LLMPort, email *EmailService, history ports.HistoryRepositoryPort, log logger.Logger) *ResearchService {
	return &ResearchService{
		search:  search,
		llm:     llm,
		email:   email,
		history: history,
		logger:  log,
	}
}

// SearchOnly runs the orchestrated search without summarization and
// returns the unified envelope. Used by the per-strategy endpoints.
func (s *ResearchService) SearchOnly(ctx context.Context, query domain.Query, strategy domain.Strategy) (*domain.SearchResults, error) {
	return s.search.Search(ctx, query, strategy)
}

// Research performs the search, synthesizes an LLM summary when the query
// asks for one, and wraps everything into an AgentResponse. Every outcome,
// including failures before any network call, is a well-formed envelope
// with a non-negative execution time.
func (s *ResearchService) Research(ctx context.Context, query domain.Query, strategy domain.Strategy) domain.AgentResponse {
	started := time.Now()
	s.logger.Info("Running research", "query", query.Text)

	results, err := s.search.Search(ctx, query, strategy)
	if err != nil {
		s.recordRun(ctx, query, strategy, nil, err, started)
		return domain.FailureResponse("Research failed due to search error", err, started)
	}

	resultsText := formatResultsText(results)
	data := &ResearchData{
		SearchResults: results,
		Sources:       results.Sources(),
		Query:         query.Text,
	}

	var tokens int
	if query.IncludeSummary {
		prompt := buildResearchPrompt(query.Text, results, resultsText)
		summary, used, err := s.llm.Generate(ctx, prompt)
		if err != nil {
			summaryErr := &domain.SummaryError{Err: err}
			s.logger.Error("Summarization failed after successful search",
				"query", query.Text, "results", results.TotalResults, "error", err)
			s.recordRun(ctx, query, strategy, results, summaryErr, started)
			return domain.FailureResponse("Search succeeded but summarization failed", summaryErr, started)
		}
		data.Summary = summary
		tokens = used
	} else {
		// No summary requested: the formatted raw results stand in for it
		data.Summary = resultsText
	}

	s.recordRun(ctx, query, strategy, results, nil, started)
	message := fmt.Sprintf("Research completed successfully with %d sources", results.TotalResults)
	return domain.SuccessResponse(data, message, started, tokens)
}

// ResearchWithEmail runs Research and then attempts an email draft based on
// the findings. Draft creation is best-effort: its failure is reported in
// the message but never invalidates the research result.
func (s *ResearchService) ResearchWithEmail(ctx context.Context, query domain.Query, strategy domain.Strategy, req domain.EmailRequest) domain.AgentResponse {
	started := time.Now()

	response := s.Research(ctx, query, strategy)
	if !response.Success {
		return response
	}
	data := response.Data.(*ResearchData)

	if s.email == nil {
		response.Message += "; email drafting is not enabled"
		return response
	}

	req.ResearchQuery = query.Text
	draft, tokens, err := s.email.CreateResearchEmail(ctx, req, data.Summary, data.Sources)
	if err != nil {
		s.logger.Warn("Email draft creation failed, research result unaffected", "error", err)
		response.Message += "; email draft creation failed: " + err.Error()
	} else {
		data.EmailDraft = draft
		if draft.DraftID != "" {
			response.Message += fmt.Sprintf("; email draft created (id %s)", draft.DraftID)
		} else {
			response.Message += "; email draft generated but not saved to the mail service"
		}
		response.TokensUsed += tokens
	}

	response.ExecutionTime = time.Since(started).Seconds()
	return response
}

// History returns the most recent research run records
func (s *ResearchService) History(ctx context.Context, limit int) ([]*domain.ResearchRecord, error) {
	if s.history == nil {
		return nil, fmt.Errorf("research history is not enabled")
	}
	return s.history.List(ctx, limit)
}

// recordRun logs one run to the history store. History failures are not
// allowed to affect the research outcome.
func (s *ResearchService) recordRun(ctx context.Context, query domain.Query, strategy domain.Strategy, results *domain.SearchResults, runErr error, started time.Time) {
	if s.history == nil {
		return
	}
	if strategy == "" {
		strategy = s.search.DefaultStrategy()
	}

	record := domain.NewResearchRecord(query.Text, strategy)
	record.Elapsed = time.Since(started).Seconds()
	if results != nil {
		record.Providers = results.ProvidersUsed
		record.ResultCount = results.TotalResults
	}
	if runErr != nil {
		record.Error = runErr.Error()
	} else {
		record.Success = true
	}

	if err := s.history.Save(ctx, record); err != nil {
		s.logger.Warn("Failed to record research run", "error", err)
	}
}

// formatResultsText renders the results the way they are embedded in the
// research prompt, numbered in envelope order
func formatResultsText(results *domain.SearchResults) string {
	var b strings.Builder
	for i, result := range results.Results {
		fmt.Fprintf(&b, "\n%d. **%s**\n", i+1, result.ResultTitle())
		fmt.Fprintf(&b, "   Source: %s\n", result.ResultURL())
		fmt.Fprintf(&b, "   Content: %s\n", result.DisplayText())
		if tavily, ok := result.(domain.TavilyResult); ok && tavily.PublishedDate != "" {
			fmt.Fprintf(&b, "   Published: %s\n", tavily.PublishedDate)
		}
	}
	return b.String()
}

// buildResearchPrompt assembles the single synthesis prompt sent to the LLM
func buildResearchPrompt(query string, results *domain.SearchResults, resultsText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze and synthesize the following search results for the query: %q\n\n", query)
	if results.AISummary != "" {
		fmt.Fprintf(&b, "AI Summary from Tavily: %s\n\n", results.AISummary)
	}
	b.WriteString("Search Results:\n")
	b.WriteString(resultsText)
	b.WriteString(`
Please provide a comprehensive research summary that:
1. Synthesizes key findings across all sources
2. Identifies main themes and trends
3. Highlights the most credible and recent information
4. Notes any conflicting information or gaps
5. Provides actionable insights where appropriate
6. Maintains proper attribution to sources

Focus on accuracy, clarity, and usefulness for the reader.
`)
	return b.String()
}
