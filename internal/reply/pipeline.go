package reply

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tripbuddy/assist/internal/models"
	"github.com/tripbuddy/assist/internal/routing"
	"github.com/tripbuddy/assist/internal/session"
)

// Bot reply wording.
const (
	ApologyText = "Sorry, an error occurred while processing your request."

	nudgeFormat = "Looks like you still need %d steps to meet your daily goal. " +
		"Would you like to get some steps in on your way?"
)

// AppendFunc receives each bot message produced by a planner call, in order.
type AppendFunc func(models.Message) error

// Pipeline turns user text into backend calls and bot replies on a session.
type Pipeline struct {
	sessions *session.Store
	planner  routing.Planner
}

// NewPipeline creates a reply pipeline over the given session store and
// planner.
func NewPipeline(sessions *session.Store, planner routing.Planner) *Pipeline {
	return &Pipeline{
		sessions: sessions,
		planner:  planner,
	}
}

// SubmitText sends user text to the route backend on behalf of sessionID.
// Empty or whitespace-only text is a no-op. The user message is appended
// before the backend call so it is visible immediately. All backend failures
// are absorbed into a bot apology message; SubmitText itself only fails when
// the session is unknown at submit time.
//
// Replies land in sessionID regardless of which session is active when the
// backend responds. If the session was deleted in the meantime the reply is
// dropped.
func (p *Pipeline) SubmitText(ctx context.Context, sessionID, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if err := p.sessions.Append(ctx, sessionID, models.NewTextMessage(models.SenderUser, text)); err != nil {
		return err
	}

	RequestRoute(ctx, p.planner, text, func(msg models.Message) error {
		err := p.sessions.Append(ctx, sessionID, msg)
		if errors.Is(err, session.ErrUnknownSession) {
			// Session deleted while the request was in flight; the reply
			// has nowhere to go.
			log.Printf("Dropping reply for deleted session %s", sessionID)
			return nil
		}
		return err
	})
	return nil
}

// RequestRoute issues one planner call for input and hands the resulting bot
// messages to emit, in order. On success that is a route message followed,
// when the summary reports outstanding steps, by a text nudge naming the
// count. On any failure it is a single apology message. Errors never escape;
// the pipeline always resolves.
func RequestRoute(ctx context.Context, planner routing.Planner, input string, emit AppendFunc) {
	route, err := planner.GenerateRoute(ctx, input)
	if err != nil {
		log.Printf("Route request failed: %v", err)
		appendLogged(emit, models.NewTextMessage(models.SenderBot, ApologyText))
		return
	}

	appendLogged(emit, models.NewRouteMessage(route.Route1Info, route.Route1))

	if route.Route1Info.StepsNeeded > 0 {
		nudge := fmt.Sprintf(nudgeFormat, route.Route1Info.StepsNeeded)
		appendLogged(emit, models.NewTextMessage(models.SenderBot, nudge))
	}
}

func appendLogged(emit AppendFunc, msg models.Message) {
	if err := emit(msg); err != nil {
		log.Printf("Failed to append bot message: %v", err)
	}
}
