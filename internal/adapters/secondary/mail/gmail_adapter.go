package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vibin/research-pipeline/config"
	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/logger"
)

// GmailAdapter implements the MailPort interface against the Gmail REST
// API. Authentication is out of scope: the access token comes from
// configuration and is assumed valid.
type GmailAdapter struct {
	config     *config.GmailConfig
	logger     logger.Logger
	httpClient *http.Client
	baseURL    string
}

// NewGmailAdapter creates a new GmailAdapter
func NewGmailAdapter(cfg *config.GmailConfig, log logger.Logger) *GmailAdapter {
	return &GmailAdapter{
		config: cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		baseURL: cfg.Endpoint,
	}
}

// draftCreateRequest is the Gmail drafts.create payload: the full RFC 2822
// message, base64url-encoded
type draftCreateRequest struct {
	Message struct {
		Raw string `json:"raw"`
	} `json:"message"`
}

// CreateDraft persists the draft with Gmail and returns the draft ID
func (a *GmailAdapter) CreateDraft(ctx context.Context, draft *domain.EmailDraft) (string, error) {
	if a.config.AccessToken == "" {
		return "", fmt.Errorf("Gmail access token is not configured")
	}
	a.logger.Info("Creating Gmail draft", "subject", draft.Subject, "recipients", len(draft.To))

	var payload draftCreateRequest
	payload.Message.Raw = base64.RawURLEncoding.EncodeToString(buildMIMEMessage(draft))

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode draft request: %w", err)
	}

	url := a.baseURL + "/users/me/drafts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create draft request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("Gmail draft request failed", "error", err)
		return "", fmt.Errorf("Gmail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", a.statusError(resp)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to parse Gmail response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("Gmail response contained no draft ID")
	}

	a.logger.Info("Gmail draft created", "draft_id", created.ID)
	return created.ID, nil
}

// statusError builds the error for a non-2xx Gmail response
func (a *GmailAdapter) statusError(resp *http.Response) error {
	message := fmt.Sprintf("Gmail API returned %d", resp.StatusCode)

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var errorResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
		message += ": " + errorResp.Error.Message
	}

	a.logger.Error("Gmail returned non-OK status", "status", resp.StatusCode)
	return fmt.Errorf("%s", message)
}

// buildMIMEMessage renders the draft as an RFC 2822 message with an HTML
// body
func buildMIMEMessage(draft *domain.EmailDraft) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(draft.To, ", "))
	if len(draft.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(draft.CC, ", "))
	}
	if len(draft.BCC) > 0 {
		fmt.Fprintf(&b, "Bcc: %s\r\n", strings.Join(draft.BCC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", draft.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(draft.Body)
	return b.Bytes()
}
