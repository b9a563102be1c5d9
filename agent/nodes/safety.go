package node

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	gatewayx "github.com/pattadon/shoppilot/agent/gateway"
)

// Safety screens the raw utterance. It fails closed: when the reasoning
// service cannot be reached or returns garbage, the turn is treated as
// unsafe and the user is asked to rephrase — an unscreened utterance never
// flows further on error.
func Safety(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, systemPrompt string) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	prompt := fmt.Sprintf("Analyze the following user input in a retail shopping assistant context:\n\n%q", ts.UserInput)

	verdict, err := gatewayx.CompleteJSON[contractx.SafetyVerdict](ctx, reasoner, contractx.CompletionRequest{
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: 200,
	})
	if err != nil {
		log.Warn().Err(err).Msg("safety check failed, failing closed")
		ts.IsSafe = false
		ts.SafetyIssues = []string{"safety check unavailable"}
		ts.AgentResponse = "I'm having trouble understanding this request. Please rephrase your query."
		return ts, nil
	}

	ts.IsSafe = verdict.IsSafe
	ts.SafetyIssues = verdict.Issues

	if !verdict.IsSafe {
		ts.Intent = contractx.IntentSafetyViolation
		switch verdict.Severity {
		case contractx.SeverityHigh:
			ts.AgentResponse = "I can't help with that. Please keep the conversation respectful and focused on shopping."
		case contractx.SeverityMedium:
			ts.AgentResponse = "Let's stay focused on shopping. Can I help you find something?"
		default:
			ts.AgentResponse = "I'm here to help you find products. What are you shopping for today?"
		}
	}

	return ts, nil
}
