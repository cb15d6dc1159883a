package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibin/research-pipeline/config"
	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/logger"
)

func newTestGmailAdapter(t *testing.T, handler http.HandlerFunc) *GmailAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.GmailConfig{
		Enabled:        true,
		AccessToken:    "test-token",
		Endpoint:       server.URL,
		TimeoutSeconds: 5,
	}
	return NewGmailAdapter(cfg, logger.New(slog.LevelError, io.Discard))
}

func testDraft() *domain.EmailDraft {
	return &domain.EmailDraft{
		To:      []string{"alice@example.com"},
		CC:      []string{"bob@example.com"},
		Subject: "Research: Go generics",
		Body:    "<div><p>Summary goes here.</p></div>",
	}
}

func TestCreateDraftSendsAuthorizedMIMEMessage(t *testing.T) {
	var gotAuth string
	var gotRaw string
	adapter := newTestGmailAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users/me/drafts", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var payload struct {
			Message struct {
				Raw string `json:"raw"`
			} `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotRaw = payload.Message.Raw

		json.NewEncoder(w).Encode(map[string]string{"id": "draft-123"})
	})

	id, err := adapter.CreateDraft(context.Background(), testDraft())

	require.NoError(t, err)
	assert.Equal(t, "draft-123", id)
	assert.Equal(t, "Bearer test-token", gotAuth)

	decoded, err := base64.RawURLEncoding.DecodeString(gotRaw)
	require.NoError(t, err)
	mime := string(decoded)
	assert.Contains(t, mime, "To: alice@example.com\r\n")
	assert.Contains(t, mime, "Cc: bob@example.com\r\n")
	assert.Contains(t, mime, "Subject: Research: Go generics\r\n")
	assert.Contains(t, mime, "Content-Type: text/html")
	assert.Contains(t, mime, "<p>Summary goes here.</p>")
	assert.NotContains(t, mime, "Bcc:")
}

func TestCreateDraftNonOKStatus(t *testing.T) {
	adapter := newTestGmailAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Invalid Credentials"},
		})
	})

	_, err := adapter.CreateDraft(context.Background(), testDraft())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid Credentials")
}

func TestCreateDraftMissingDraftID(t *testing.T) {
	adapter := newTestGmailAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := adapter.CreateDraft(context.Background(), testDraft())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no draft ID")
}

func TestCreateDraftWithoutToken(t *testing.T) {
	cfg := &config.GmailConfig{Enabled: true, Endpoint: "http://unused", TimeoutSeconds: 5}
	adapter := NewGmailAdapter(cfg, logger.New(slog.LevelError, io.Discard))

	_, err := adapter.CreateDraft(context.Background(), testDraft())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token")
}

func TestBuildMIMEMessageHeaderOrder(t *testing.T) {
	draft := testDraft()
	draft.BCC = []string{"carol@example.com"}

	mime := string(buildMIMEMessage(draft))

	headerEnd := "\r\n\r\n"
	require.Contains(t, mime, headerEnd)
	assert.Contains(t, mime, "Bcc: carol@example.com\r\n")
	assert.True(t, len(mime) > 0 && mime[:4] == "To: ")
}
