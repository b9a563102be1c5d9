package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/pattadon/shoppilot/agent/contract"
	gatewayx "github.com/pattadon/shoppilot/agent/gateway"
	statex "github.com/pattadon/shoppilot/agent/state"
)

// Cart action labels recorded on the turn state.
const (
	CartActionAdd      = "add"
	CartActionRemove   = "remove"
	CartActionCheckout = "checkout"
	CartActionView     = "view"
)

var (
	cartAddWords      = []string{"add", "buy", "get", "want", "purchase", "take"}
	cartRemoveWords   = []string{"remove", "delete"}
	cartCheckoutWords = []string{"checkout", "payment", "proceed"}
	cartViewPhrases   = []string{"show cart", "view cart", "show my cart", "see my cart", "cart summary", "what's in my cart"}
)

// ManageCart detects the cart operation lexically and applies it. Explicit
// remove, checkout, and view phrases are checked before add words, since add
// verbs like "want" show up in view requests too. Add falls back to the most
// recent turn that still has search results; cart failures produce an
// apology, never an error out of the stage.
func ManageCart(ctx context.Context, ts *TurnState) (*TurnState, error) {
	if ts == nil {
		return nil, ErrNilTurnState
	}

	lowered := strings.ToLower(ts.UserInput)
	action := detectCartAction(lowered)
	ts.CartAction = action

	switch action {
	case CartActionAdd:
		ts.AgentResponse = addToCart(ts, lowered)
	case CartActionRemove:
		ts.AgentResponse = removeFromCart(ts)
	case CartActionCheckout:
		ts.AgentResponse = checkoutCart(ts)
	default:
		ts.AgentResponse = ts.Cart.Summary()
	}

	log.Debug().Str("action", action).Int("items", len(ts.Cart.Items)).Msg("cart operation")
	return ts, nil
}

func detectCartAction(lowered string) string {
	switch {
	case containsAny(lowered, cartRemoveWords):
		return CartActionRemove
	case containsAny(lowered, cartCheckoutWords):
		return CartActionCheckout
	case containsAny(lowered, cartViewPhrases):
		return CartActionView
	case containsAny(lowered, cartAddWords):
		return CartActionAdd
	default:
		return CartActionView
	}
}

func addToCart(ts *TurnState, lowered string) string {
	results := ts.SearchResults
	if len(results) == 0 {
		results = ts.Memory.LastSearchResults()
		if len(results) > 0 {
			log.Debug().Msg("using search results from an earlier turn")
		}
	}
	if len(results) == 0 {
		return "I couldn't find any products to add. Please search for items first."
	}

	index := parseItemSelection(lowered, len(results))
	candidate := results[index]
	metadata := candidate.Metadata
	if len(metadata) == 0 && len(candidate.Raw) > 0 {
		metadata = gatewayx.NormalizeMetadata(candidate.Raw)
	}

	item, err := cartItemFromMetadata(metadata, index)
	if err != nil {
		log.Warn().Err(err).Msg("could not build cart item from candidate metadata")
		return "Couldn't add item to cart. Please try again."
	}

	ts.Cart.AddItem(item)
	return fmt.Sprintf("Added %s %s (%s) - Rs.%.2f to your cart!\n\n%s",
		item.Brand, item.ProductName, item.Color, item.Price, ts.Cart.Summary())
}

// parseItemSelection maps ordinal references in the message to a result
// index, clamped to the available range. Unreferenced adds take the top
// result.
func parseItemSelection(lowered string, resultCount int) int {
	ordinals := []struct {
		words []string
		index int
	}{
		{[]string{"1st", "first", "1"}, 0},
		{[]string{"2nd", "second", "2"}, 1},
		{[]string{"3rd", "third", "3"}, 2},
		{[]string{"4th", "fourth", "4"}, 3},
		{[]string{"5th", "fifth", "5"}, 4},
	}

	index := 0
	for _, ordinal := range ordinals {
		if containsAny(lowered, ordinal.words) {
			index = ordinal.index
			break
		}
	}
	if strings.Contains(lowered, "last") {
		index = resultCount - 1
	}
	if index > resultCount-1 {
		index = resultCount - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func cartItemFromMetadata(metadata map[string]any, index int) (statex.CartItem, error) {
	if len(metadata) == 0 {
		return statex.CartItem{}, fmt.Errorf("candidate has no metadata: %w", contractx.ErrValidation)
	}

	price := 0.0
	if v, ok := metadata["price_inr"]; ok {
		switch n := v.(type) {
		case float64:
			price = n
		case int:
			price = float64(n)
		}
	}

	return statex.CartItem{
		ProductID:   stringField(metadata, "image_id", fmt.Sprintf("item_%d", index)),
		ProductName: stringField(metadata, "product_type", "Product"),
		Brand:       stringField(metadata, "brand", "Unknown"),
		Color:       stringField(metadata, "color", "N/A"),
		Price:       price,
		Quantity:    1,
	}, nil
}

func stringField(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func removeFromCart(ts *TurnState) string {
	if len(ts.Cart.Items) == 0 {
		return "Your cart is already empty."
	}
	removed := ts.Cart.Items[len(ts.Cart.Items)-1]
	ts.Cart.RemoveItem(removed.ProductName)
	return fmt.Sprintf("Removed %s from your cart.\n\n%s", removed.ProductName, ts.Cart.Summary())
}

func checkoutCart(ts *TurnState) string {
	if len(ts.Cart.Items) == 0 {
		return "Your cart is empty. Add something before checking out!"
	}
	return fmt.Sprintf("You're ready to checkout!\n\n%s\n\nTo complete your order:\n1. Confirm items\n2. Enter shipping info\n3. Proceed to payment", ts.Cart.Summary())
}
