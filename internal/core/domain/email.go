package domain

import (
	"fmt"
	"time"
)

// Email tone values accepted by EmailRequest.Tone
const (
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	ToneFormal       = "formal"
	ToneFriendly     = "friendly"
)

// EmailDraft is an unsent email. DraftID is populated only after the mail
// service accepts the draft; a failed create still returns the draft itself.
type EmailDraft struct {
	To        []string  `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CC        []string  `json:"cc,omitempty"`
	BCC       []string  `json:"bcc,omitempty"`
	DraftID   string    `json:"draft_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the draft has the fields the mail service requires
func (d *EmailDraft) Validate() error {
	if len(d.To) == 0 {
		return fmt.Errorf("email draft requires at least one recipient")
	}
	if d.Subject == "" {
		return fmt.Errorf("email draft requires a subject")
	}
	if d.Body == "" {
		return fmt.Errorf("email draft requires a body")
	}
	return nil
}

// EmailRequest asks for an email draft based on research findings
type EmailRequest struct {
	ResearchQuery  string `json:"research_query"`
	Context        string `json:"email_context"`
	Recipient      string `json:"recipient_email"`
	SubjectHint    string `json:"subject_hint,omitempty"`
	Tone           string `json:"tone"`
	IncludeSources bool   `json:"include_sources"`
}

// Normalize fills defaults and validates the request
func (r *EmailRequest) Normalize() error {
	if r.Recipient == "" {
		return fmt.Errorf("recipient email must not be empty")
	}
	if r.Tone == "" {
		r.Tone = ToneProfessional
	}
	switch r.Tone {
	case ToneProfessional, ToneCasual, ToneFormal, ToneFriendly:
	default:
		return fmt.Errorf("unknown email tone %q", r.Tone)
	}
	return nil
}
