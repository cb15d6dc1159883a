package ports

import "context"

// LLMPort defines the interface for the text-transform backend
type LLMPort interface {
	// Generate produces text for a single prompt and reports the number
	// of tokens consumed (0 when the backend does not report usage)
	Generate(ctx context.Context, prompt string) (string, int, error)

	// ModelName returns the configured model identifier
	ModelName() string
}
