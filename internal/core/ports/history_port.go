package ports

import (
	"context"

	"github.com/vibin/research-pipeline/internal/core/domain"
)

// HistoryRepositoryPort defines the interface for the research run log
type HistoryRepositoryPort interface {
	// Save stores one run record
	Save(ctx context.Context, record *domain.ResearchRecord) error

	// List returns the most recent records, newest first
	List(ctx context.Context, limit int) ([]*domain.ResearchRecord, error)

	// Close releases the underlying store
	Close() error
}
