package node

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	gatewayx "github.com/pattadon/shoppilot/agent/gateway"
)

// StitchContext merges this turn's raw entities with the active context into
// the canonical search specification, which becomes the new active context.
// Turn 1 needs no stitching and makes no reasoning call. On reasoning
// failure the stage degrades to a shallow merge with raw values winning —
// always a merge, never a crash or an empty context.
func StitchContext(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, systemPrompt string) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	if ts.Turn <= 1 {
		ts.StitchedEntities = copyEntities(ts.RawEntities)
		ts.Memory.SetActiveContext(ts.StitchedEntities)
		return ts, nil
	}

	previous := ts.Memory.ActiveContext

	prompt := fmt.Sprintf(`Previous context: %v
Current user input: %q
Extracted entities: %v
Intent: %s`,
		previous, ts.UserInput, ts.RawEntities, ts.Intent)

	stitched, err := gatewayx.CompleteJSON[map[string]any](ctx, reasoner, contractx.CompletionRequest{
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: 400,
	})
	if err != nil || stitched == nil {
		log.Warn().Err(err).Msg("context stitching failed, falling back to shallow merge")
		stitched = shallowMerge(previous, ts.RawEntities)
	}

	ts.StitchedEntities = stitched
	ts.Memory.SetActiveContext(stitched)
	log.Debug().Interface("context", stitched).Msg("context stitched")
	return ts, nil
}

// shallowMerge unions previous context with current entities, current
// values winning on key collision.
func shallowMerge(previous, current map[string]any) map[string]any {
	merged := make(map[string]any, len(previous)+len(current))
	for k, v := range previous {
		merged[k] = v
	}
	for k, v := range current {
		merged[k] = v
	}
	return merged
}

func copyEntities(entities map[string]any) map[string]any {
	copied := make(map[string]any, len(entities))
	for k, v := range entities {
		copied[k] = v
	}
	return copied
}
