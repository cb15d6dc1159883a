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

// maxEmailSources caps the source links appended to a research email
const maxEmailSources = 5

// EmailService generates email drafts from research findings and saves
// them with the mail service on a best-effort basis.
type EmailService struct {
	llm    ports.LLMPort
	mail   ports.MailPort // nil when draft persistence is disabled
	logger logger.Logger
}

// NewEmailService creates a new EmailService. mail may be nil, in which
// case drafts are generated but never persisted.
func NewEmailService(llm ports.LLMPort, mail ports.MailPort, log logger.Logger) *EmailService {
	return &EmailService{
		llm:    llm,
		mail:   mail,
		logger: log,
	}
}

// CreateResearchEmail generates an email draft from the research summary
// and attempts to save it. A mail-service failure leaves DraftID empty but
// still returns the generated draft; only generation failures error out.
// The second return value is the number of LLM tokens consumed.
func (s *EmailService) CreateResearchEmail(ctx context.Context, req domain.EmailRequest, summary string, sources []string) (*domain.EmailDraft, int, error) {
	if err := req.Normalize(); err != nil {
		return nil, 0, err
	}
	s.logger.Info("Creating research email draft", "recipient", req.Recipient, "tone", req.Tone)

	content := formatResearchContent(summary, sources, req.IncludeSources)
	prompt := buildEmailPrompt(req, content)

	generated, tokens, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, 0, fmt.Errorf("email generation failed: %w", err)
	}

	subject, body := splitSubjectAndBody(generated)
	if subject == "" {
		subject = req.SubjectHint
	}
	if subject == "" {
		subject = "Research: " + req.ResearchQuery
	}

	draft := &domain.EmailDraft{
		To:        []string{req.Recipient},
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := draft.Validate(); err != nil {
		return nil, tokens, fmt.Errorf("generated email is incomplete: %w", err)
	}

	if s.mail == nil {
		s.logger.Info("Mail service disabled, returning unsaved draft", "subject", draft.Subject)
		return draft, tokens, nil
	}

	draftID, err := s.mail.CreateDraft(ctx, draft)
	if err != nil {
		// Degrade gracefully: the draft itself is still usable
		s.logger.Warn("Failed to save draft with mail service", "subject", draft.Subject, "error", err)
		return draft, tokens, nil
	}

	draft.DraftID = draftID
	s.logger.Info("Email draft created", "subject", draft.Subject, "draft_id", draftID)
	return draft, tokens, nil
}

// formatResearchContent renders the research findings as HTML for the
// email body, with the top sources appended as links
func formatResearchContent(summary string, sources []string, includeSources bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<div>%s</div>", summary)

	if includeSources && len(sources) > 0 {
		if len(sources) > maxEmailSources {
			sources = sources[:maxEmailSources]
		}
		b.WriteString("\n\n<h3>Sources:</h3>\n<ul>\n")
		for i, source := range sources {
			fmt.Fprintf(&b, "<li><a href=%q>Source %d</a></li>\n", source, i+1)
		}
		b.WriteString("</ul>")
	}
	return b.String()
}

// buildEmailPrompt assembles the drafting prompt for the LLM
func buildEmailPrompt(req domain.EmailRequest, content string) string {
	subjectHint := req.SubjectHint
	if subjectHint == "" {
		subjectHint = "Generate appropriate subject"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a professional email for %s based on the following research:\n\n", req.Recipient)
	fmt.Fprintf(&b, "**Research Query:** %s\n", req.ResearchQuery)
	fmt.Fprintf(&b, "**Context:** %s\n", req.Context)
	fmt.Fprintf(&b, "**Tone:** %s\n", req.Tone)
	fmt.Fprintf(&b, "**Subject Hint:** %s\n\n", subjectHint)
	fmt.Fprintf(&b, "**Research Content:**\n%s\n", content)
	b.WriteString(`
Please create an email that:
1. Has an appropriate subject line
2. Addresses the recipient professionally
3. Incorporates the research findings naturally
4. Maintains the requested tone
5. Includes proper source attribution if sources are provided
6. Ends with an appropriate closing

Return the subject on the first line prefixed with "Subject: ", followed by
a blank line and the HTML email body.
`)
	return b.String()
}

// splitSubjectAndBody parses the LLM output into a subject line and body.
// When no subject line is found the whole output becomes the body.
func splitSubjectAndBody(generated string) (string, string) {
	generated = strings.TrimSpace(generated)
	lines := strings.SplitN(generated, "\n", 2)

	first := strings.TrimSpace(lines[0])
	if strings.HasPrefix(strings.ToLower(first), "subject:") {
		subject := strings.TrimSpace(first[len("subject:"):])
		body := ""
		if len(lines) > 1 {
			body = strings.TrimSpace(lines[1])
		}
		return subject, body
	}
	return "", generated
}
