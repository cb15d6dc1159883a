package ports

import (
	"context"

	"github.com/vibin/research-pipeline/internal/core/domain"
)

// ProviderResult carries one backend's normalized items. Answer is the
// free-text answer some backends return alongside the result list; it is
// empty for backends without that feature.
type ProviderResult struct {
	Items  []domain.Result
	Answer string
}

// SearchProviderPort is the contract every search backend adapter
// implements. Fetch issues exactly one outbound request; retry and fallback
// are the orchestrator's responsibility, never the adapter's.
type SearchProviderPort interface {
	// Name identifies the backend
	Name() domain.Provider

	// Fetch performs one search call. All backend failures (non-2xx
	// status, timeout, connection error, malformed body) surface as a
	// *domain.ProviderError.
	Fetch(ctx context.Context, query domain.Query) (*ProviderResult, error)
}
