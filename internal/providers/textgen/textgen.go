package textgen

import "context"

type Provider interface {
	// GenerateText returns the full text of a single completion.
	GenerateText(ctx context.Context, prompt string) (string, error)
	Close() error
}
