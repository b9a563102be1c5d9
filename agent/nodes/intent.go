package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
)

// ClassifyIntent labels the turn with an intent from the enum, using the
// utterance plus the prior active context. Defaults to product_search on
// failure, the least harmful fallback.
func ClassifyIntent(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, systemPrompt string) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	prompt := fmt.Sprintf("Classify the user intent from: %q\n\nConversation turn: %d\nPrevious context: %v",
		ts.UserInput, ts.Turn, ts.Memory.ActiveContext)

	label, err := reasoner.Complete(ctx, contractx.CompletionRequest{
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: 20,
	})
	if err != nil {
		log.Warn().Err(err).Msg("intent classification failed, defaulting to product_search")
		ts.Intent = contractx.IntentProductSearch
		return ts, nil
	}

	ts.Intent = contractx.ParseIntent(strings.ToLower(strings.TrimSpace(label)))
	log.Debug().Str("intent", string(ts.Intent)).Msg("intent classified")
	return ts, nil
}
