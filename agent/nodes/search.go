package node

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	statex "github.com/pattadon/shoppilot/agent/state"
)

const searchResultLimit = 20

// Image evidence dominates when blending embeddings for a hybrid search.
const (
	imageEmbeddingWeight = 0.8
	textEmbeddingWeight  = 0.2
)

// SearchProducts embeds the stitched search specification (blended with the
// image embedding when one is attached), queries the retrieval backend, and
// records the turn in conversation memory. Embedding or retrieval failure
// leaves the result set empty; the clarification filter turns that into a
// narrowing question.
func SearchProducts(ctx context.Context, ts *TurnState, embedder contractx.Embedder, searcher contractx.Searcher) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	searchText := buildSearchText(ts.StitchedEntities, ts.UserInput)
	vector := buildQueryVector(ctx, ts, embedder, searchText)

	if len(vector) == 0 {
		log.Warn().Msg("no query vector could be built, skipping retrieval")
		ts.SearchResults = nil
	} else {
		results, err := searcher.Search(ctx, vector, searchResultLimit)
		if err != nil {
			log.Warn().Err(err).Msg("retrieval failed, continuing with no results")
			results = nil
		}
		ts.SearchResults = results
	}

	ts.Memory.AddTurn(statex.ConversationTurn{
		TurnID:            ts.Turn,
		UserInput:         ts.UserInput,
		ExtractedEntities: ts.StitchedEntities,
		Timestamp:         ts.Now,
		SearchResults:     ts.SearchResults,
		ContextSnapshot:   copyEntities(ts.StitchedEntities),
	})

	log.Debug().Int("results", len(ts.SearchResults)).Str("query", searchText).Msg("vector search complete")
	return ts, nil
}

func buildSearchText(entities map[string]any, fallback string) string {
	keys := make([]string, 0, len(entities))
	for k, v := range entities {
		if v == nil || fmt.Sprint(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return fallback
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, entities[k]))
	}
	return strings.Join(parts, ". ")
}

func buildQueryVector(ctx context.Context, ts *TurnState, embedder contractx.Embedder, searchText string) []float64 {
	textVector, err := embedder.TextEmbedding(ctx, searchText)
	if err != nil {
		log.Warn().Err(err).Msg("text embedding failed")
		textVector = nil
	}

	if !ts.HasImage || ts.ImagePath == "" {
		return textVector
	}

	imageVector, err := embedder.ImageEmbedding(ctx, ts.ImagePath)
	if err != nil {
		log.Warn().Err(err).Msg("image embedding failed, using text embedding only")
		return textVector
	}

	if len(textVector) != len(imageVector) {
		return imageVector
	}

	blended := make([]float64, len(imageVector))
	for i := range imageVector {
		blended[i] = imageVector[i]*imageEmbeddingWeight + textVector[i]*textEmbeddingWeight
	}
	return blended
}
