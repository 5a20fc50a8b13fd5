package storage

import "context"

// Standard keys used by the conversation core.
const (
	KeySessions      = "chatSessions"
	KeyActiveSession = "lastSession"
	KeyVoiceMessages = "messages"
)

// Store defines the interface for durable key-value persistence.
// This allows us to swap between Redis, SQLite, in-memory, etc.
// There is no transactional guarantee across keys; callers must tolerate
// partial writes between restarts.
type Store interface {
	// Save durably persists value under key, overwriting any previous value.
	Save(ctx context.Context, key, value string) error

	// Load returns the value previously saved under key. The second return
	// is false if the key was never written.
	Load(ctx context.Context, key string) (string, bool, error)

	// Close releases any resources held by the store.
	Close() error
}
