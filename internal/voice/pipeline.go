package voice

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/tripbuddy/assist/internal/models"
	"github.com/tripbuddy/assist/internal/reply"
	"github.com/tripbuddy/assist/internal/routing"
	"github.com/tripbuddy/assist/internal/storage"
	"github.com/tripbuddy/assist/internal/transcribe"
)

// State of the voice pipeline.
type State string

const (
	StateIdle          State = "idle"
	StateRecording     State = "recording"
	StateTranscribing  State = "transcribing"
	StateAwaitingRoute State = "awaiting_route"
)

// VoiceErrorText is appended when an utterance cannot be turned into text.
const VoiceErrorText = "Sorry, an error occurred while processing your voice input."

// Pipeline is the voice capture state machine: Idle → Recording →
// Transcribing → AwaitingRoute → Idle, with any failure returning to Idle.
// Its messages live in their own list, persisted independently of the text
// session mapping.
type Pipeline struct {
	device      Device
	transcriber transcribe.Transcriber
	planner     routing.Planner
	store       storage.Store

	mu       sync.Mutex
	state    State
	messages []models.Message
}

// NewPipeline loads any persisted voice messages and starts in Idle.
func NewPipeline(ctx context.Context, device Device, transcriber transcribe.Transcriber, planner routing.Planner, store storage.Store) (*Pipeline, error) {
	p := &Pipeline{
		device:      device,
		transcriber: transcriber,
		planner:     planner,
		store:       store,
		state:       StateIdle,
		messages:    []models.Message{},
	}

	data, ok, err := store.Load(ctx, storage.KeyVoiceMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to load voice messages: %w", err)
	}
	if ok {
		messages, err := models.DecodeMessages([]byte(data))
		if err != nil {
			log.Printf("Unreadable voice message list: %v", err)
			messages = []models.Message{}
		}
		p.messages = messages
	}

	return p, nil
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Messages returns a copy of the voice message list in append order.
func (p *Pipeline) Messages() []models.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// StartRecording begins a capture. While a previous utterance is still being
// recorded or processed the call is a no-op (single-flight). A device
// failure leaves the pipeline Idle and is reported as ErrPermission.
func (p *Pipeline) StartRecording(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateIdle {
		return nil
	}

	if err := p.device.Start(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPermission, err)
	}
	p.state = StateRecording
	return nil
}

// StopRecording finalizes the capture and runs the utterance through
// transcription and, on a usable transcript, the route backend. All failures
// are absorbed into bot error messages; the pipeline always returns to Idle.
// Calling StopRecording while not recording is a no-op.
func (p *Pipeline) StopRecording(ctx context.Context) {
	p.mu.Lock()
	if p.state != StateRecording {
		p.mu.Unlock()
		return
	}
	p.state = StateTranscribing
	p.mu.Unlock()

	defer p.setState(StateIdle)

	audio, err := p.device.Stop(ctx)
	if err != nil {
		log.Printf("Failed to finalize recording: %v", err)
		p.append(ctx, models.NewTextMessage(models.SenderBot, VoiceErrorText))
		return
	}

	transcript, err := p.transcriber.Transcribe(ctx, audio)
	if err != nil || transcript == "" {
		if err != nil {
			log.Printf("Transcription failed: %v", err)
		}
		p.append(ctx, models.NewTextMessage(models.SenderBot, VoiceErrorText))
		return
	}

	p.append(ctx, models.NewTextMessage(models.SenderUser, transcript))
	p.setState(StateAwaitingRoute)

	reply.RequestRoute(ctx, p.planner, transcript, func(msg models.Message) error {
		p.append(ctx, msg)
		return nil
	})
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// append adds a message and persists the list under its own storage key.
// Write failures are logged; the in-memory list stays authoritative.
func (p *Pipeline) append(ctx context.Context, msg models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.messages = append(p.messages, msg)

	data, err := models.EncodeMessages(p.messages)
	if err != nil {
		log.Printf("Failed to encode voice messages: %v", err)
		return
	}
	if err := p.store.Save(ctx, storage.KeyVoiceMessages, string(data)); err != nil {
		log.Printf("Failed to persist voice messages: %v", err)
	}
}
