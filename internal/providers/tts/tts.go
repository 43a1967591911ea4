package tts

import "context"

type Provider interface {
	// Synthesize returns raw PCM samples (mono, 16-bit) for the given text,
	// spoken by the named voice. Container wrapping is the caller's job.
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
	Close() error
}
