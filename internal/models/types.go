package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// Message senders
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message types
const (
	TypeText  = "text"
	TypeRoute = "route"
)

// ErrCorruptMessage indicates a stored message does not match any known shape.
var ErrCorruptMessage = errors.New("corrupt message")

// RouteLeg is a single leg of a planned route.
type RouteLeg struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	ModeOfTransport string `json:"modeOfTransport"`
}

// RouteInfo is the route summary returned by the planning backend.
// StepsNeeded > 0 means the user is short of their daily step goal and the
// assistant should suggest walking part of the way.
type RouteInfo struct {
	Distance    string `json:"distance,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Summary     string `json:"summary,omitempty"`
	StepsNeeded int    `json:"stepsNeeded"`
}

// RouteResponse is the wire shape of the route-planning backend.
type RouteResponse struct {
	Route1     []RouteLeg `json:"route1"`
	Route1Info RouteInfo  `json:"route1Info"`
}

// Message is a single chat entry. Type selects the variant: "text" carries
// Text, "route" carries Data and Route. The rendering layer dispatches on
// Type; the core only constructs and orders messages.
type Message struct {
	Sender string     `json:"sender"`
	Type   string     `json:"type"`
	Text   string     `json:"text,omitempty"`
	Data   *RouteInfo `json:"data,omitempty"`
	Route  []RouteLeg `json:"route,omitempty"`
}

// NewTextMessage builds a plain text message.
func NewTextMessage(sender, text string) Message {
	return Message{Sender: sender, Type: TypeText, Text: text}
}

// NewRouteMessage builds a bot message carrying a route result.
func NewRouteMessage(info RouteInfo, route []RouteLeg) Message {
	return Message{Sender: SenderBot, Type: TypeRoute, Data: &info, Route: route}
}

// Validate checks the message against the known variants.
func (m Message) Validate() error {
	if m.Sender != SenderUser && m.Sender != SenderBot {
		return fmt.Errorf("%w: unknown sender %q", ErrCorruptMessage, m.Sender)
	}
	switch m.Type {
	case TypeText:
		return nil
	case TypeRoute:
		if m.Data == nil {
			return fmt.Errorf("%w: route message without data", ErrCorruptMessage)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrCorruptMessage, m.Type)
	}
}

// DecodeMessages unmarshals a stored message list. Entries that fail to match
// a known variant are skipped with a log line; one bad entry never fails the
// whole load.
func DecodeMessages(data []byte) ([]Message, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode message list: %w", err)
	}

	messages := make([]Message, 0, len(raw))
	for i, entry := range raw {
		var msg Message
		if err := json.Unmarshal(entry, &msg); err != nil {
			log.Printf("Skipping corrupt message %d: %v", i, err)
			continue
		}
		if err := msg.Validate(); err != nil {
			log.Printf("Skipping corrupt message %d: %v", i, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// EncodeMessages serializes a message list for storage.
func EncodeMessages(messages []Message) ([]byte, error) {
	if messages == nil {
		messages = []Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message list: %w", err)
	}
	return data, nil
}
