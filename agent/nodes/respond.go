package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	gatewayx "github.com/pattadon/shoppilot/agent/gateway"
)

const presentedResultLimit = 8

// GenerateResponse renders the final reply for the search path. A pending
// clarification question passes through untouched; otherwise the surviving
// candidates are rendered as a numbered listing.
func GenerateResponse(ctx context.Context, ts *TurnState) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	if ts.NeedsClarification {
		ts.AgentResponse = ts.ClarificationQuestion
		return ts, nil
	}

	if len(ts.SearchResults) == 0 {
		ts.AgentResponse = "I couldn't find matching products. Try different search terms."
		return ts, nil
	}

	ts.AgentResponse = renderProductListing(ts)
	return ts, nil
}

func renderProductListing(ts *TurnState) string {
	var sb strings.Builder
	count := len(ts.SearchResults)
	if count > presentedResultLimit {
		count = presentedResultLimit
	}
	fmt.Fprintf(&sb, "Found %d matching products:\n\n", len(ts.SearchResults))

	rendered := 0
	for i := 0; i < count; i++ {
		candidate := ts.SearchResults[i]
		metadata := candidate.Metadata
		if len(metadata) == 0 {
			if len(candidate.Raw) == 0 {
				log.Warn().Int("index", i).Msg("candidate has no usable metadata")
				continue
			}
			metadata = gatewayx.NormalizeMetadata(candidate.Raw)
		}
		rendered++

		fmt.Fprintf(&sb, "%d. %s %s\n", rendered,
			stringField(metadata, "brand", "Unknown"),
			stringField(metadata, "product_type", "Product"))
		fmt.Fprintf(&sb, "   Price: Rs.%s | Material: %s | Fit: %s\n",
			renderPrice(metadata["price_inr"]),
			stringField(metadata, "material", "N/A"),
			stringField(metadata, "fit", "N/A"))
		fmt.Fprintf(&sb, "   ID: %s | Match: %.2f\n\n",
			stringField(metadata, "product_id", "unknown"), candidate.Score)
	}

	if rendered == 0 {
		return "I found some products but couldn't read their details. Please try again."
	}

	sb.WriteString("Say \"add <number> to cart\" to pick one, or refine your search.")
	return sb.String()
}

func renderPrice(v any) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%v", v)
}
