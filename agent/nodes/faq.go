package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	catalogx "github.com/pattadon/shoppilot/agent/catalog"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	gatewayx "github.com/pattadon/shoppilot/agent/gateway"
	statex "github.com/pattadon/shoppilot/agent/state"
)

const catalogUnavailableMessage = "The product catalog is not available right now. Please try again later."

var contextualPronouns = []string{"them", "those", "it", "that"}

// AnswerCatalogQuestion handles FAQ and analytics questions through the
// structured catalog. Pronouns are resolved against recent conversation
// context before SQL generation, so "how many of them" after a Nike search
// queries Nike products. The resolved question also refreshes conversation
// memory, keeping catalog questions part of the dialogue context.
func AnswerCatalogQuestion(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, catalog contractx.Catalog, sqlPrompt, entitiesPrompt string) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	question := resolveContextualReferences(ts.UserInput, ts.Memory)

	if catalog == nil {
		ts.AgentResponse = catalogUnavailableMessage
		return ts, nil
	}

	query, err := generateSQL(ctx, reasoner, sqlPrompt, question)
	if err != nil || query == "" {
		log.Warn().Err(err).Msg("SQL generation failed")
		ts.AgentResponse = "Could not generate a query for your question. Could you rephrase it?"
		return ts, nil
	}
	ts.SQLQuery = query

	result, err := catalog.Query(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("catalog query failed")
		ts.AgentResponse = "Query failed. Could you rephrase your question?"
		ts.SQLResults = ts.AgentResponse
		return ts, nil
	}

	answer := catalogx.FormatResult(question, result)
	ts.SQLResults = answer
	ts.AgentResponse = answer

	updateCatalogContext(ctx, ts, reasoner, entitiesPrompt, question)
	return ts, nil
}

// resolveContextualReferences substitutes pronouns with a phrase built from
// the recent brand, product type, and color context. Questions without
// pronouns pass through untouched.
func resolveContextualReferences(userInput string, memory *statex.ConversationMemory) string {
	lowered := strings.ToLower(userInput)
	if !containsAny(lowered, contextualPronouns) {
		return userInput
	}

	recent := memory.RecentContext(3)
	parts := make([]string, 0, 3)
	if brand, ok := recent["brand"].(string); ok && brand != "" {
		parts = append(parts, brand+" brand")
	}
	if productType, ok := recent["product_type"].(string); ok && productType != "" {
		parts = append(parts, productType)
	}
	if color, ok := recent["color"].(string); ok && color != "" {
		parts = append(parts, color)
	}
	if len(parts) == 0 {
		return userInput
	}

	contextPhrase := strings.Join(parts, " ")
	resolved := userInput
	for _, pronoun := range contextualPronouns {
		resolved = strings.ReplaceAll(resolved, pronoun, contextPhrase)
	}
	log.Debug().Str("resolved", resolved).Msg("resolved contextual reference")
	return resolved
}

func generateSQL(ctx context.Context, reasoner contractx.Reasoner, systemPrompt, question string) (string, error) {
	raw, err := reasoner.Complete(ctx, contractx.CompletionRequest{
		System:    systemPrompt,
		Prompt:    fmt.Sprintf("Generate SQL for: %s", question),
		MaxTokens: 500,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(gatewayx.StripCodeFences(raw)), nil
}

// updateCatalogContext re-extracts entities from the resolved question and
// records the turn, so a later "add the first one" or "show me more" still
// has the catalog question in context.
func updateCatalogContext(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, entitiesPrompt, question string) {
	entities, err := gatewayx.CompleteJSON[map[string]any](ctx, reasoner, contractx.CompletionRequest{
		System:    entitiesPrompt,
		Prompt:    question,
		MaxTokens: 300,
	})
	if err != nil {
		log.Warn().Err(err).Msg("entity extraction from resolved question failed")
		entities = map[string]any{}
	}

	merged := shallowMerge(ts.Memory.ActiveContext, entities)
	ts.Memory.SetActiveContext(merged)
	ts.Memory.AddTurn(statex.ConversationTurn{
		TurnID:            ts.Turn,
		UserInput:         ts.UserInput,
		ExtractedEntities: entities,
		Timestamp:         ts.Now,
		ContextSnapshot:   copyEntities(merged),
	})
}
