package node

import (
	"context"

	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
)

const fallbackSmallTalkReply = "Hello! I'm your shopping assistant. I can help you find t-shirts, TVs, and more. What are you looking for today?"

// SmallTalk answers greetings and chit-chat while steering the conversation
// back to shopping.
func SmallTalk(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, systemPrompt string) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	reply, err := reasoner.Complete(ctx, contractx.CompletionRequest{
		System:      systemPrompt,
		Prompt:      ts.UserInput,
		Temperature: 0.7,
		MaxTokens:   100,
	})
	if err != nil || reply == "" {
		log.Warn().Err(err).Msg("small talk generation failed, using fallback")
		reply = fallbackSmallTalkReply
	}

	ts.Intent = contractx.IntentSmallTalk
	ts.AgentResponse = reply
	return ts, nil
}
