package session

import "errors"

// Session store errors.
var (
	// ErrUnknownSession indicates an operation targeted a session id that
	// does not (or no longer) exists.
	ErrUnknownSession = errors.New("unknown session")

	// ErrCollision indicates a rename target already names a different
	// existing session.
	ErrCollision = errors.New("session name already taken")
)
