package node

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	gatewayx "github.com/pattadon/shoppilot/agent/gateway"
)

// ExtractEntities pulls recognized product attributes from the utterance.
// With an image attached, visual entities are derived first and win over
// textual ones on key collision — the image is the primary evidence for a
// product search. Never raises: extraction failure yields an empty mapping.
func ExtractEntities(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, systemPrompt string) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	entities := extractFromText(ctx, ts, reasoner, systemPrompt)

	if ts.HasImage && ts.ImagePath != "" {
		visual := extractFromImage(ctx, ts, reasoner, systemPrompt)
		for k, v := range visual {
			entities[k] = v
		}
	}

	ts.RawEntities = entities
	log.Debug().Interface("entities", entities).Bool("multimodal", ts.HasImage).Msg("entities extracted")
	return ts, nil
}

func extractFromText(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, systemPrompt string) map[string]any {
	prompt := fmt.Sprintf("Extract product-related entities from the user input: %q\n\nIntent: %s", ts.UserInput, ts.Intent)

	entities, err := gatewayx.CompleteJSON[map[string]any](ctx, reasoner, contractx.CompletionRequest{
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: 400,
	})
	if err != nil {
		log.Warn().Err(err).Msg("text entity extraction failed, continuing with empty entities")
		return map[string]any{}
	}
	if entities == nil {
		return map[string]any{}
	}
	return entities
}

func extractFromImage(ctx context.Context, ts *TurnState, reasoner contractx.Reasoner, systemPrompt string) map[string]any {
	encoded, err := gatewayx.EncodeImage(ts.ImagePath)
	if err != nil {
		log.Warn().Err(err).Str("path", ts.ImagePath).Msg("image encoding failed, falling back to text-only extraction")
		return nil
	}

	prompt := fmt.Sprintf("Extract visual product entities from the attached image. The accompanying text was: %q", ts.UserInput)

	entities, err := gatewayx.CompleteJSON[map[string]any](ctx, reasoner, contractx.CompletionRequest{
		System:    systemPrompt,
		Prompt:    prompt,
		ImageB64:  encoded,
		MaxTokens: 400,
	})
	if err != nil {
		log.Warn().Err(err).Msg("visual entity extraction failed")
		return nil
	}
	return entities
}
