package domain

import "context"

// GenerationClient is the boundary to the external text-generation provider.
type GenerationClient interface {
	// Ready reports whether a credential is present and has not been
	// invalidated. Generation must be refused locally while not ready.
	Ready() bool

	// SetCredential installs or replaces the provider credential. An empty
	// key clears readiness.
	SetCredential(key string)

	// Validate performs a single lightweight probe call. A failure resets
	// readiness to false.
	Validate(ctx context.Context) error

	// GenerateJSON sends prompt with a strict response schema and returns
	// the raw JSON text of the response.
	GenerateJSON(ctx context.Context, prompt string, schema map[string]any) ([]byte, error)

	// GenerateText sends prompt and returns the plain response text.
	GenerateText(ctx context.Context, prompt string) (string, error)
}
