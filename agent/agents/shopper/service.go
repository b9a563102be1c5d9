package shopper

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	nodex "github.com/pattadon/shoppilot/agent/nodes"
	promptx "github.com/pattadon/shoppilot/agent/prompt"
	statex "github.com/pattadon/shoppilot/agent/state"
)

var ErrInvalidMessage = nodex.ErrInvalidMessage

const faultResponse = "I'm sorry, something went wrong while handling that. Please try again."

// Agent is the conversational shopping agent. It owns one session and runs
// the compiled turn graph over it; callers wanting persistence snapshot the
// session through Session() and a state store.
//
// An Agent is not safe for concurrent ProcessTurn calls on the same session.
type Agent struct {
	reasoner contractx.Reasoner
	embedder contractx.Embedder
	searcher contractx.Searcher
	catalog  contractx.Catalog

	session *statex.Session
	prompts promptx.PromptSet

	graphRunner compose.Runnable[*nodex.TurnState, *nodex.TurnState]

	now func() time.Time
}

// New builds an agent over the given collaborators. catalog may be nil, in
// which case FAQ questions get an unavailability reply; everything else is
// required. A nil session starts a fresh one.
func New(
	reasoner contractx.Reasoner,
	embedder contractx.Embedder,
	searcher contractx.Searcher,
	catalog contractx.Catalog,
	session *statex.Session,
) (*Agent, error) {
	if reasoner == nil {
		return nil, errors.New("reasoner is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if session == nil {
		session = statex.NewSession("")
	}
	session.EnsureInitialized()

	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	a := &Agent{
		reasoner: reasoner,
		embedder: embedder,
		searcher: searcher,
		catalog:  catalog,
		session:  session,
		prompts:  prompts,
		now:      time.Now,
	}

	graphRunner, err := a.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner
	return a, nil
}

// ProcessTurn runs one user turn through the graph and returns the reply.
// The only error it returns is for unusable input; pipeline faults of any
// kind, panics included, degrade to an apologetic reply so a single bad
// turn never kills the conversation.
func (a *Agent) ProcessTurn(ctx context.Context, text, imagePath string) (reply string, err error) {
	a.session.TurnCount++
	ts, stateErr := nodex.NewTurnState(text, imagePath, a.session.TurnCount, a.session, a.now())
	if stateErr != nil {
		a.session.TurnCount--
		return "", stateErr
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("turn pipeline panicked")
			reply = faultResponse
			err = nil
		}
		a.session.Touch(a.now())
	}()

	out, invokeErr := a.graphRunner.Invoke(ctx, ts)
	if invokeErr != nil {
		log.Error().Err(invokeErr).Int("turn", ts.Turn).Msg("turn pipeline failed")
		return faultResponse, nil
	}
	if out == nil || out.AgentResponse == "" {
		log.Warn().Int("turn", ts.Turn).Msg("turn produced no response")
		return faultResponse, nil
	}
	return out.AgentResponse, nil
}

// Reset clears the cart and conversation memory but keeps the session ID.
func (a *Agent) Reset() {
	a.session.Reset()
}

// Session exposes the live session for persistence by the caller.
func (a *Agent) Session() *statex.Session {
	return a.session
}
