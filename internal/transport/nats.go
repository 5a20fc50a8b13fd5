package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tripbuddy/assist/internal/config"
	"github.com/tripbuddy/assist/internal/models"
	"github.com/tripbuddy/assist/internal/reply"
	"github.com/tripbuddy/assist/internal/session"
	"github.com/tripbuddy/assist/internal/voice"
)

// Error codes reported to the presentation layer.
const (
	ErrorParseError     = "PARSE_ERROR"
	ErrorUnknownSession = "UNKNOWN_SESSION"
	ErrorNameTaken      = "SESSION_NAME_TAKEN"
	ErrorMicPermission  = "MIC_PERMISSION"
	ErrorVoiceDisabled  = "VOICE_DISABLED"
)

// SubmitRequest asks the assistant to process user text on a session.
// An empty SessionID targets the active session.
type SubmitRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// SessionRequest addresses one session by id.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// CreateRequest creates a new session, optionally switching to it.
type CreateRequest struct {
	Switch bool `json:"switch"`
}

// RenameRequest renames a session.
type RenameRequest struct {
	OldID string `json:"old_id"`
	NewID string `json:"new_id"`
}

// Response is the reply envelope for every subject. Only the fields relevant
// to the request are populated; a non-empty ErrorCode means the operation was
// rejected and the presentation layer should surface it.
type Response struct {
	Sessions     []string         `json:"sessions,omitempty"`
	Active       string           `json:"active,omitempty"`
	SessionID    string           `json:"session_id,omitempty"`
	Messages     []models.Message `json:"messages,omitempty"`
	State        string           `json:"state,omitempty"`
	ErrorCode    string           `json:"error_code,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

// NATSTransport exposes the conversation core to the presentation layer over
// NATS request/reply. Voice control subjects are served only after AttachVoice.
type NATSTransport struct {
	conn     *nats.Conn
	config   *config.Config
	sessions *session.Store
	pipeline *reply.Pipeline
	voice    *voice.Pipeline
	subs     []*nats.Subscription
}

// NewNATSTransport connects to NATS.
func NewNATSTransport(cfg *config.Config, sessions *session.Store, pipeline *reply.Pipeline) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS server: %s", cfg.NatsURL)

	return &NATSTransport{
		conn:     conn,
		config:   cfg,
		sessions: sessions,
		pipeline: pipeline,
	}, nil
}

// Device returns a capture device that delegates recording to the
// presentation layer over the same NATS connection.
func (nt *NATSTransport) Device() voice.Device {
	return &NATSDevice{
		conn:    nt.conn,
		prefix:  nt.config.NatsSubjectPrefix,
		timeout: nt.config.NatsTimeout,
	}
}

// AttachVoice enables the voice control subjects. Must be called before Start.
func (nt *NATSTransport) AttachVoice(vp *voice.Pipeline) {
	nt.voice = vp
}

// Start subscribes to all assistant subjects.
func (nt *NATSTransport) Start() error {
	handlers := map[string]func([]byte) *Response{
		"submit":            nt.submit,
		"sessions.list":     nt.listSessions,
		"sessions.create":   nt.createSession,
		"sessions.switch":   nt.switchSession,
		"sessions.delete":   nt.deleteSession,
		"sessions.rename":   nt.renameSession,
		"sessions.messages": nt.sessionMessages,
		"voice.start":       nt.voiceStart,
		"voice.stop":        nt.voiceStop,
		"voice.messages":    nt.voiceMessages,
	}

	for suffix, handler := range handlers {
		subject := nt.config.NatsSubjectPrefix + suffix
		fn := handler
		sub, err := nt.conn.Subscribe(subject, func(msg *nats.Msg) {
			nt.respond(msg, fn(msg.Data))
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		nt.subs = append(nt.subs, sub)
		log.Printf("Subscribed to subject: %s", subject)
	}
	return nil
}

func (nt *NATSTransport) submit(data []byte) *Response {
	var req SubmitRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(ErrorParseError, "Invalid request format")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = nt.sessions.Active()
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.RouteTimeout)
	defer cancel()

	if err := nt.pipeline.SubmitText(ctx, sessionID, req.Text); err != nil {
		return errorResponse(ErrorUnknownSession, err.Error())
	}

	return &Response{
		SessionID: sessionID,
		Messages:  nt.sessions.Messages(sessionID),
	}
}

func (nt *NATSTransport) listSessions([]byte) *Response {
	return &Response{
		Sessions: nt.sessions.List(),
		Active:   nt.sessions.Active(),
	}
}

func (nt *NATSTransport) createSession(data []byte) *Response {
	var req CreateRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return errorResponse(ErrorParseError, "Invalid request format")
		}
	}

	ctx := context.Background()
	id := nt.sessions.Create(ctx)
	if req.Switch {
		nt.sessions.SwitchTo(ctx, id)
	}

	return &Response{
		SessionID: id,
		Sessions:  nt.sessions.List(),
		Active:    nt.sessions.Active(),
	}
}

func (nt *NATSTransport) switchSession(data []byte) *Response {
	var req SessionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(ErrorParseError, "Invalid request format")
	}

	nt.sessions.SwitchTo(context.Background(), req.SessionID)
	active := nt.sessions.Active()
	return &Response{
		Active:   active,
		Messages: nt.sessions.Messages(active),
	}
}

func (nt *NATSTransport) deleteSession(data []byte) *Response {
	var req SessionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(ErrorParseError, "Invalid request format")
	}

	nt.sessions.Delete(context.Background(), req.SessionID)
	return &Response{
		Sessions: nt.sessions.List(),
		Active:   nt.sessions.Active(),
	}
}

func (nt *NATSTransport) renameSession(data []byte) *Response {
	var req RenameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(ErrorParseError, "Invalid request format")
	}

	err := nt.sessions.Rename(context.Background(), req.OldID, req.NewID)
	switch {
	case errors.Is(err, session.ErrCollision):
		return errorResponse(ErrorNameTaken, err.Error())
	case errors.Is(err, session.ErrUnknownSession):
		return errorResponse(ErrorUnknownSession, err.Error())
	case err != nil:
		return errorResponse(ErrorParseError, err.Error())
	}

	return &Response{
		Sessions: nt.sessions.List(),
		Active:   nt.sessions.Active(),
	}
}

func (nt *NATSTransport) sessionMessages(data []byte) *Response {
	var req SessionRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return errorResponse(ErrorParseError, "Invalid request format")
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = nt.sessions.Active()
	}

	return &Response{
		SessionID: sessionID,
		Messages:  nt.sessions.Messages(sessionID),
	}
}

func (nt *NATSTransport) voiceStart([]byte) *Response {
	if nt.voice == nil {
		return errorResponse(ErrorVoiceDisabled, "Voice pipeline not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	if err := nt.voice.StartRecording(ctx); err != nil {
		return errorResponse(ErrorMicPermission, err.Error())
	}
	return &Response{State: string(nt.voice.State())}
}

func (nt *NATSTransport) voiceStop([]byte) *Response {
	if nt.voice == nil {
		return errorResponse(ErrorVoiceDisabled, "Voice pipeline not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.RouteTimeout)
	defer cancel()

	nt.voice.StopRecording(ctx)
	return &Response{
		State:    string(nt.voice.State()),
		Messages: nt.voice.Messages(),
	}
}

func (nt *NATSTransport) voiceMessages([]byte) *Response {
	if nt.voice == nil {
		return errorResponse(ErrorVoiceDisabled, "Voice pipeline not configured")
	}
	return &Response{
		State:    string(nt.voice.State()),
		Messages: nt.voice.Messages(),
	}
}

func errorResponse(code, message string) *Response {
	return &Response{
		ErrorCode:    code,
		ErrorMessage: message,
	}
}

func (nt *NATSTransport) respond(msg *nats.Msg, response *Response) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// Close drains subscriptions and closes the connection.
func (nt *NATSTransport) Close() error {
	for _, sub := range nt.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("Error unsubscribing: %v", err)
		}
	}
	if nt.conn != nil {
		nt.conn.Close()
		log.Println("NATS connection closed")
	}
	return nil
}
