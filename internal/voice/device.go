package voice

import (
	"context"
	"errors"
)

// ErrPermission indicates the capture device is denied or unavailable.
var ErrPermission = errors.New("microphone unavailable")

// Device abstracts the microphone. The embedding application supplies an
// implementation; the pipeline only cares about the opaque payload.
type Device interface {
	// Start acquires the capture hardware and begins recording. A denied or
	// missing device is reported as an error.
	Start(ctx context.Context) error

	// Stop releases the hardware and returns everything captured since
	// Start as one payload, fragments concatenated in capture order.
	Stop(ctx context.Context) ([]byte, error)
}
