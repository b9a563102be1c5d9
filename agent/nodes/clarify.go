package node

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
)

const (
	// Candidates at or below this score are dropped before presentation.
	clarificationScoreThreshold = 0.6
	// More survivors than this trigger a narrowing question.
	clarificationResultCeiling = 8
	// After this many clarifications the session never asks again.
	maxClarificationsPerSession = 3

	fallbackClarificationQuestion = "Would you like to narrow by brand, price, or color?"
	noMatchesClarification        = "I couldn't find good matches. Can you share more details or change your criteria?"
)

// FilterResults decides between answering and asking a narrowing question.
// Low-scoring candidates are dropped first; an empty survivor set always
// clarifies, an oversized one asks one narrowing question, and the per
// session cap stops clarification loops outright.
func FilterResults(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, systemPrompt string) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	filtered := make([]contractx.ScoredCandidate, 0, len(ts.SearchResults))
	for _, candidate := range ts.SearchResults {
		if candidate.Score > clarificationScoreThreshold {
			filtered = append(filtered, candidate)
		}
	}
	ts.SearchResults = filtered
	ts.NeedsClarification = false
	ts.ClarificationQuestion = ""

	if ts.Memory.ClarificationCount >= maxClarificationsPerSession {
		log.Debug().Msg("clarification cap reached, proceeding with remaining results")
		return ts, nil
	}

	switch {
	case len(filtered) == 0:
		ts.NeedsClarification = true
		ts.ClarificationQuestion = noMatchesClarification
		ts.Memory.ClarificationCount++

	case len(filtered) > clarificationResultCeiling:
		prompt := fmt.Sprintf("Search context: %v\nMatching products found: %d", ts.StitchedEntities, len(filtered))
		question, err := reasoner.Complete(ctx, contractx.CompletionRequest{
			System:      systemPrompt,
			Prompt:      prompt,
			Temperature: 0.3,
			MaxTokens:   50,
		})
		if err != nil || question == "" {
			log.Warn().Err(err).Msg("clarification question generation failed, using fallback")
			question = fallbackClarificationQuestion
		}
		ts.NeedsClarification = true
		ts.ClarificationQuestion = question
		ts.Memory.ClarificationCount++
	}

	log.Debug().
		Int("filtered", len(filtered)).
		Bool("needs_clarification", ts.NeedsClarification).
		Msg("clarification filter")
	return ts, nil
}
