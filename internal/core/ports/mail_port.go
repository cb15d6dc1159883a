package ports

import (
	"context"

	"github.com/vibin/research-pipeline/internal/core/domain"
)

// MailPort defines the interface for the mail service draft operations
type MailPort interface {
	// CreateDraft persists the draft with the mail service and returns
	// its opaque draft identifier
	CreateDraft(ctx context.Context, draft *domain.EmailDraft) (string, error)
}
