package node

import (
	"context"

	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	gatewayx "github.com/pattadon/shoppilot/agent/gateway"
)

const fallbackOutOfDomainReply = "I'm a shopping assistant, so that's outside what I can help with. I can help you find products, answer catalog questions, or manage your cart."

// outOfDomainVerdict is the JSON shape the out-of-domain prompt asks for.
// Only Response ever reaches the user; Category is logged.
type outOfDomainVerdict struct {
	Category string `json:"category"`
	Response string `json:"response"`
}

// OutOfDomain politely declines requests that have nothing to do with
// shopping and redirects to what the assistant can do. The model answers in
// JSON; an unparseable or empty reply degrades to a fixed redirect.
func OutOfDomain(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, systemPrompt string) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	verdict, err := gatewayx.CompleteJSON[outOfDomainVerdict](ctx, reasoner, contractx.CompletionRequest{
		System:      systemPrompt,
		Prompt:      ts.UserInput,
		Temperature: 0.5,
		MaxTokens:   100,
	})
	if err != nil || verdict.Response == "" {
		log.Warn().Err(err).Msg("out-of-domain reply generation failed, using fallback")
		verdict.Response = fallbackOutOfDomainReply
	} else {
		log.Debug().Str("category", verdict.Category).Msg("out-of-domain query classified")
	}

	ts.Intent = contractx.IntentOutOfDomain
	ts.AgentResponse = verdict.Response
	return ts, nil
}
