package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailDraftValidate(t *testing.T) {
	draft := &EmailDraft{
		To:      []string{"alice@example.com"},
		Subject: "Research findings",
		Body:    "<p>hello</p>",
	}
	require.NoError(t, draft.Validate())

	missingTo := *draft
	missingTo.To = nil
	assert.ErrorContains(t, missingTo.Validate(), "recipient")

	missingSubject := *draft
	missingSubject.Subject = ""
	assert.ErrorContains(t, missingSubject.Validate(), "subject")

	missingBody := *draft
	missingBody.Body = ""
	assert.ErrorContains(t, missingBody.Validate(), "body")
}

func TestEmailRequestNormalize(t *testing.T) {
	req := EmailRequest{Recipient: "alice@example.com"}
	require.NoError(t, req.Normalize())
	assert.Equal(t, ToneProfessional, req.Tone)

	req = EmailRequest{Recipient: "alice@example.com", Tone: ToneCasual}
	require.NoError(t, req.Normalize())
	assert.Equal(t, ToneCasual, req.Tone)

	req = EmailRequest{Recipient: "alice@example.com", Tone: "sarcastic"}
	assert.ErrorContains(t, req.Normalize(), "unknown email tone")

	req = EmailRequest{}
	assert.ErrorContains(t, req.Normalize(), "recipient")
}
