package transcribe

import "context"

// Transcriber defines the interface to the speech-to-text backend.
type Transcriber interface {
	// Transcribe converts an opaque audio payload into text. An empty
	// transcript with a nil error means the backend heard nothing usable.
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
