package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/core/ports"
)

// fakeLLM is a scripted LLMPort
type fakeLLM struct {
	response string
	tokens   int
	err      error
	prompts  []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, int, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", 0, f.err
	}
	return f.response, f.tokens, nil
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

// fakeMail is a scripted MailPort
type fakeMail struct {
	draftID string
	err     error
	calls   int
}

func (f *fakeMail) CreateDraft(ctx context.Context, draft *domain.EmailDraft) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.draftID, nil
}

// fakeHistory records Save calls in memory
type fakeHistory struct {
	records []*domain.ResearchRecord
}

func (f *fakeHistory) Save(ctx context.Context, record *domain.ResearchRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistory) List(ctx context.Context, limit int) ([]*domain.ResearchRecord, error) {
	return f.records, nil
}

func (f *fakeHistory) Close() error { return nil }

func newResearchService(tavily, serp ports.SearchProviderPort, llm ports.LLMPort, mail ports.MailPort, history ports.HistoryRepositoryPort) *ResearchService {
	log := testLogger()
	search := NewSearchService(tavily, serp, domain.StrategyIntelligent, log)
	var email *EmailService
	if llm != nil {
		email = NewEmailService(llm, mail, log)
	}
	return NewResearchService(search, llm, email, history, log)
}

func TestResearchSuccess(t *testing.T) {
	tavily := &fakeProvider{name: domain.ProviderTavily, result: &ports.ProviderResult{Items: tavilyItems(2), Answer: "tavily answer"}}
	llm := &fakeLLM{response: "synthesized summary", tokens: 321}
	history := &fakeHistory{}
	svc := newResearchService(tavily, nil, llm, nil, history)

	response := svc.Research(context.Background(), testQuery(t), "")

	require.True(t, response.Success)
	assert.Empty(t, response.Error)
	assert.Equal(t, 321, response.TokensUsed)
	assert.GreaterOrEqual(t, response.ExecutionTime, 0.0)
	assert.Contains(t, response.Message, "2 sources")

	data := response.Data.(*ResearchData)
	assert.Equal(t, "synthesized summary", data.Summary)
	assert.Len(t, data.Sources, 2)
	assert.Equal(t, 2, data.SearchResults.TotalResults)

	// the prompt embeds the query, the results and the Tavily answer
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "x")
	assert.Contains(t, llm.prompts[0], "tavily result")
	assert.Contains(t, llm.prompts[0], "tavily answer")

	require.Len(t, history.records, 1)
	assert.True(t, history.records[0].Success)
	assert.Equal(t, 2, history.records[0].ResultCount)
}

func TestResearchSearchFailure(t *testing.T) {
	svc := newResearchService(nil, nil, &fakeLLM{response: "summary"}, nil, nil)

	response := svc.Research(context.Background(), testQuery(t), "")

	require.False(t, response.Success)
	assert.Nil(t, response.Data)
	assert.Contains(t, response.Message, "search error")
	assert.Contains(t, response.Error, "no search providers configured")
	assert.GreaterOrEqual(t, response.ExecutionTime, 0.0)
}

func TestResearchSummarizationFailureIsDistinct(t *testing.T) {
	tavily := &fakeProvider{name: domain.ProviderTavily, result: &ports.ProviderResult{Items: tavilyItems(2)}}
	llm := &fakeLLM{err: errors.New("model unavailable")}
	history := &fakeHistory{}
	svc := newResearchService(tavily, nil, llm, nil, history)

	response := svc.Research(context.Background(), testQuery(t), "")

	require.False(t, response.Success)
	// the failure must be tellable apart from a search failure
	assert.Contains(t, response.Message, "summarization failed")
	assert.NotContains(t, response.Message, "search error")
	assert.Contains(t, response.Error, "summarization failed")
	assert.Contains(t, response.Error, "model unavailable")

	// the search itself succeeded and is recorded as such
	require.Len(t, history.records, 1)
	assert.Equal(t, 2, history.records[0].ResultCount)
	assert.Equal(t, []domain.Provider{domain.ProviderTavily}, history.records[0].Providers)
}

func TestResearchWithoutSummary(t *testing.T) {
	tavily := &fakeProvider{name: domain.ProviderTavily, result: &ports.ProviderResult{Items: tavilyItems(1)}}
	llm := &fakeLLM{response: "should not be used"}
	svc := newResearchService(tavily, nil, llm, nil, nil)

	query := testQuery(t)
	query.IncludeSummary = false
	response := svc.Research(context.Background(), query, "")

	require.True(t, response.Success)
	assert.Empty(t, llm.prompts, "summarizer must not run when no summary was requested")

	data := response.Data.(*ResearchData)
	// the formatted raw findings stand in for the summary
	assert.Contains(t, data.Summary, "tavily result")
	assert.Zero(t, response.TokensUsed)
}

func TestResearchWithEmailDraftCreated(t *testing.T) {
	tavily := &fakeProvider{name: domain.ProviderTavily, result: &ports.ProviderResult{Items: tavilyItems(2)}}
	llm := &fakeLLM{response: "Subject: Findings\n\n<p>body</p>", tokens: 10}
	mail := &fakeMail{draftID: "draft-123"}
	svc := newResearchService(tavily, nil, llm, mail, nil)

	response := svc.ResearchWithEmail(context.Background(), testQuery(t), "", domain.EmailRequest{
		Recipient: "colleague@company.com",
		Context:   "weekly digest",
	})

	require.True(t, response.Success)
	data := response.Data.(*ResearchData)
	require.NotNil(t, data.EmailDraft)
	assert.Equal(t, "draft-123", data.EmailDraft.DraftID)
	assert.Equal(t, []string{"colleague@company.com"}, data.EmailDraft.To)
	assert.Contains(t, response.Message, "draft-123")
	assert.Equal(t, 1, mail.calls)
}

func TestResearchWithEmailMailServiceFailure(t *testing.T) {
	tavily := &fakeProvider{name: domain.ProviderTavily, result: &ports.ProviderResult{Items: tavilyItems(1)}}
	llm := &fakeLLM{response: "Subject: Findings\n\n<p>body</p>"}
	mail := &fakeMail{err: errors.New("gmail 503")}
	svc := newResearchService(tavily, nil, llm, mail, nil)

	response := svc.ResearchWithEmail(context.Background(), testQuery(t), "", domain.EmailRequest{
		Recipient: "colleague@company.com",
	})

	// mail failure must not invalidate the research result
	require.True(t, response.Success)
	data := response.Data.(*ResearchData)
	require.NotNil(t, data.EmailDraft)
	assert.Empty(t, data.EmailDraft.DraftID)
	assert.Equal(t, 1, mail.calls)
}

func TestResearchWithEmailGenerationFailure(t *testing.T) {
	tavily := &fakeProvider{name: domain.ProviderTavily, result: &ports.ProviderResult{Items: tavilyItems(1)}}

	// second Generate call (the email one) fails
	calls := 0
	flaky := &flakyLLM{inner: &fakeLLM{response: "summary"}, failFrom: 2, calls: &calls}
	search := NewSearchService(tavily, nil, domain.StrategyIntelligent, testLogger())
	email := NewEmailService(flaky, nil, testLogger())
	svc := NewResearchService(search, flaky, email, nil, testLogger())

	response := svc.ResearchWithEmail(context.Background(), testQuery(t), "", domain.EmailRequest{
		Recipient: "colleague@company.com",
	})

	require.True(t, response.Success, "email generation failure must not fail the research")
	data := response.Data.(*ResearchData)
	assert.Nil(t, data.EmailDraft)
	assert.Contains(t, response.Message, "email draft creation failed")
}

// flakyLLM fails from the nth Generate call onward
type flakyLLM struct {
	inner    *fakeLLM
	failFrom int
	calls    *int
}

func (f *flakyLLM) Generate(ctx context.Context, prompt string) (string, int, error) {
	*f.calls++
	if *f.calls >= f.failFrom {
		return "", 0, errors.New("model unavailable")
	}
	return f.inner.Generate(ctx, prompt)
}

func (f *flakyLLM) ModelName() string { return f.inner.ModelName() }

func TestFormatResultsTextIncludesPublishedDate(t *testing.T) {
	results := domain.NewSearchResults("q", []domain.Result{
		domain.TavilyResult{Title: "dated", URL: "https://a.example", Content: "c", PublishedDate: "2025-06-01", Provider: domain.ProviderTavily},
		domain.SerpResult{Title: "undated", URL: "https://b.example", Snippet: "s", Position: 2, Provider: domain.ProviderSerp},
	}, domain.ProviderTavily)

	text := formatResultsText(results)

	assert.Contains(t, text, "Published: 2025-06-01")
	assert.Contains(t, text, "1. **dated**")
	assert.Contains(t, text, "2. **undated**")
	assert.Equal(t, 1, strings.Count(text, "Published:"))
}
