package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSDevice implements voice.Device by delegating capture to the
// presentation layer, which owns the physical microphone. Start and Stop are
// request/reply round trips; the stop reply body is the opaque audio payload.
type NATSDevice struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
}

// deviceAck is the reply to a record.start request. A non-empty Error means
// the capture device is denied or unavailable.
type deviceAck struct {
	Error string `json:"error,omitempty"`
}

func (d *NATSDevice) Start(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	msg, err := d.conn.RequestWithContext(ctx, d.prefix+"voice.record.start", nil)
	if err != nil {
		return fmt.Errorf("capture device unreachable: %w", err)
	}

	var ack deviceAck
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &ack); err != nil {
			return fmt.Errorf("invalid capture device reply: %w", err)
		}
	}
	if ack.Error != "" {
		return fmt.Errorf("capture device denied: %s", ack.Error)
	}
	return nil
}

func (d *NATSDevice) Stop(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	msg, err := d.conn.RequestWithContext(ctx, d.prefix+"voice.record.stop", nil)
	if err != nil {
		return nil, fmt.Errorf("capture device unreachable: %w", err)
	}
	return msg.Data, nil
}
