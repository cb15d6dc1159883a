package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibin/research-pipeline/internal/core/domain"
)

func TestCreateResearchEmailSavesDraft(t *testing.T) {
	llm := &fakeLLM{response: "Subject: Market Update\n\n<p>Hello</p>", tokens: 42}
	mail := &fakeMail{draftID: "r-999"}
	svc := NewEmailService(llm, mail, testLogger())

	draft, tokens, err := svc.CreateResearchEmail(context.Background(), domain.EmailRequest{
		ResearchQuery: "market trends",
		Recipient:     "a@b.example",
	}, "summary text", []string{"https://a.example"})

	require.NoError(t, err)
	assert.Equal(t, "r-999", draft.DraftID)
	assert.Equal(t, "Market Update", draft.Subject)
	assert.Equal(t, "<p>Hello</p>", draft.Body)
	assert.Equal(t, 42, tokens)
}

func TestCreateResearchEmailMailFailureDegrades(t *testing.T) {
	llm := &fakeLLM{response: "Subject: S\n\nbody"}
	mail := &fakeMail{err: errors.New("gmail down")}
	svc := NewEmailService(llm, mail, testLogger())

	draft, _, err := svc.CreateResearchEmail(context.Background(), domain.EmailRequest{
		ResearchQuery: "q",
		Recipient:     "a@b.example",
	}, "summary", nil)

	require.NoError(t, err, "mail-service failure must not error out")
	require.NotNil(t, draft)
	assert.Empty(t, draft.DraftID)
	assert.Equal(t, "S", draft.Subject)
}

func TestCreateResearchEmailGenerationFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model down")}
	svc := NewEmailService(llm, &fakeMail{draftID: "never"}, testLogger())

	draft, _, err := svc.CreateResearchEmail(context.Background(), domain.EmailRequest{
		ResearchQuery: "q",
		Recipient:     "a@b.example",
	}, "summary", nil)

	require.Error(t, err)
	assert.Nil(t, draft)
}

func TestCreateResearchEmailRejectsMissingRecipient(t *testing.T) {
	svc := NewEmailService(&fakeLLM{response: "x"}, nil, testLogger())

	_, _, err := svc.CreateResearchEmail(context.Background(), domain.EmailRequest{ResearchQuery: "q"}, "summary", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient")
}

func TestCreateResearchEmailSubjectFallbacks(t *testing.T) {
	// no Subject: line in the LLM output, hint present
	llm := &fakeLLM{response: "<p>just a body</p>"}
	svc := NewEmailService(llm, nil, testLogger())

	draft, _, err := svc.CreateResearchEmail(context.Background(), domain.EmailRequest{
		ResearchQuery: "q",
		Recipient:     "a@b.example",
		SubjectHint:   "Hinted Subject",
	}, "summary", nil)

	require.NoError(t, err)
	assert.Equal(t, "Hinted Subject", draft.Subject)
	assert.Equal(t, "<p>just a body</p>", draft.Body)

	// no hint either: derive from the research query
	draft, _, err = svc.CreateResearchEmail(context.Background(), domain.EmailRequest{
		ResearchQuery: "quantum computing",
		Recipient:     "a@b.example",
	}, "summary", nil)

	require.NoError(t, err)
	assert.Equal(t, "Research: quantum computing", draft.Subject)
}

func TestFormatResearchContentCapsSources(t *testing.T) {
	sources := []string{"https://1", "https://2", "https://3", "https://4", "https://5", "https://6"}

	content := formatResearchContent("summary", sources, true)

	assert.Contains(t, content, "<div>summary</div>")
	assert.Contains(t, content, "Source 5")
	assert.NotContains(t, content, "Source 6")
	assert.NotContains(t, content, "https://6")
}

func TestFormatResearchContentWithoutSources(t *testing.T) {
	content := formatResearchContent("summary", []string{"https://1"}, false)

	assert.NotContains(t, content, "Sources")
	assert.NotContains(t, content, "https://1")
}

func TestSplitSubjectAndBody(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantSubject string
		wantBody    string
	}{
		{"standard", "Subject: Hello\n\nBody text", "Hello", "Body text"},
		{"lowercase prefix", "subject: hi\nrest", "hi", "rest"},
		{"no subject line", "Just body content", "", "Just body content"},
		{"subject only", "Subject: Lonely", "Lonely", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := splitSubjectAndBody(tt.input)
			assert.Equal(t, tt.wantSubject, subject)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
