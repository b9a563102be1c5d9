package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	gatewayx "github.com/pattadon/shoppilot/agent/gateway"
)

// Supervisor decides the first branch of the turn. On reasoning failure it
// fails open for routing only: the turn goes to the intent classifier and is
// marked safe, since the safety stage still screens explicit safety routes.
func Supervisor(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, systemPrompt string) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	hasCurrentResults := len(ts.SearchResults) > 0
	hasHistoricalResults := ts.Memory.HasSearchResults()

	prompt := fmt.Sprintf(`User input: %q
Turn count: %d
Previous context: %v
Cart items: %d

Search results context:
- Current search results available: %t (%d items)
- Historical search results available: %t
- Can add to cart: %t`,
		ts.UserInput,
		ts.Turn,
		ts.Memory.ActiveContext,
		len(ts.Cart.Items),
		hasCurrentResults, len(ts.SearchResults),
		hasHistoricalResults,
		hasCurrentResults || hasHistoricalResults,
	)

	decision, err := gatewayx.CompleteJSON[contractx.SupervisorDecision](ctx, reasoner, contractx.CompletionRequest{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: 0.1,
		MaxTokens:   300,
	})
	if err != nil {
		log.Warn().Err(err).Msg("supervisor decision failed, defaulting to intent classifier")
		ts.NextAction = ActionIntentClassifier
		ts.SupervisorReasoning = "fallback due to reasoning failure"
		ts.IsSafe = true
		return ts, nil
	}

	ts.NextAction = normalizeAction(decision.Action)
	ts.SupervisorReasoning = decision.Reasoning
	ts.IsSafe = decision.IsSafe
	if decision.Intent != "" {
		ts.Intent = contractx.ParseIntent(decision.Intent)
	}
	if decision.Confidence > 0 {
		ts.IntentConfidence = decision.Confidence
	}

	// An add command with no candidates anywhere cannot be fulfilled; a
	// search has to happen first.
	if ts.NextAction == ActionCartManager && isAddCommand(ts.UserInput) &&
		!hasCurrentResults && !hasHistoricalResults {
		ts.NextAction = ActionIntentClassifier
		ts.SupervisorReasoning = "add command with no search results, searching first"
	}

	log.Debug().
		Str("action", ts.NextAction).
		Str("reasoning", ts.SupervisorReasoning).
		Msg("supervisor decision")
	return ts, nil
}

func normalizeAction(action string) string {
	switch strings.TrimSpace(strings.ToLower(action)) {
	case ActionSafety, "guardrails":
		return ActionSafety
	case ActionCartManager:
		return ActionCartManager
	case ActionSmallTalk:
		return ActionSmallTalk
	case ActionOutOfDomain:
		return ActionOutOfDomain
	default:
		return ActionIntentClassifier
	}
}

func isAddCommand(input string) bool {
	lower := strings.ToLower(input)
	for _, word := range []string{"add", "buy", "purchase", "take"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
