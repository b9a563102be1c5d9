package node

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/pattadon/shoppilot/agent/contract"
	statex "github.com/pattadon/shoppilot/agent/state"
)

func searchCandidates() []contractx.ScoredCandidate {
	return []contractx.ScoredCandidate{
		candidateWithMetadata(0.9, map[string]any{
			"product_type": "T-shirt", "brand": "Nike", "color": "Red",
			"price_inr": 999.0, "image_id": "img-1",
		}),
		candidateWithMetadata(0.8, map[string]any{
			"product_type": "T-shirt", "brand": "Puma", "color": "Blue",
			"price_inr": 799.0, "image_id": "img-2",
		}),
		candidateWithMetadata(0.7, map[string]any{
			"product_type": "T-shirt", "brand": "Adidas", "color": "Black",
			"price_inr": 899.0, "image_id": "img-3",
		}),
	}
}

func TestManageCartAddDefaultsToFirstResult(t *testing.T) {
	t.Parallel()

	ts := newTestState(t, "add it to my cart", 2)
	ts.SearchResults = searchCandidates()

	got, err := ManageCart(context.Background(), ts)
	if err != nil {
		t.Fatalf("ManageCart() error = %v", err)
	}
	if got.CartAction != CartActionAdd {
		t.Fatalf("CartAction = %q, want add", got.CartAction)
	}
	if len(got.Cart.Items) != 1 || got.Cart.Items[0].Brand != "Nike" {
		t.Fatalf("cart = %+v, want first result added", got.Cart.Items)
	}
	if !strings.Contains(got.AgentResponse, "Added Nike T-shirt") {
		t.Fatalf("AgentResponse = %q", got.AgentResponse)
	}
}

func TestManageCartAddOrdinalSelection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		input     string
		wantBrand string
	}{
		{"2nd", "add the 2nd one", "Puma"},
		{"second", "buy the second item", "Puma"},
		{"third", "get the 3rd one", "Adidas"},
		{"last", "take the last one", "Adidas"},
		{"out of range clamps", "add the 5th one", "Adidas"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestState(t, tc.input, 2)
			ts.SearchResults = searchCandidates()

			got, err := ManageCart(context.Background(), ts)
			if err != nil {
				t.Fatalf("ManageCart() error = %v", err)
			}
			if len(got.Cart.Items) != 1 || got.Cart.Items[0].Brand != tc.wantBrand {
				t.Fatalf("cart = %+v, want %s", got.Cart.Items, tc.wantBrand)
			}
		})
	}
}

func TestManageCartAddFallsBackToHistory(t *testing.T) {
	t.Parallel()

	ts := newTestState(t, "add the first one", 3)
	ts.Memory.AddTurn(statex.ConversationTurn{TurnID: 1, SearchResults: searchCandidates()})
	ts.Memory.AddTurn(statex.ConversationTurn{TurnID: 2})

	got, err := ManageCart(context.Background(), ts)
	if err != nil {
		t.Fatalf("ManageCart() error = %v", err)
	}
	if len(got.Cart.Items) != 1 || got.Cart.Items[0].Brand != "Nike" {
		t.Fatalf("cart = %+v, want add from historical results", got.Cart.Items)
	}
}

func TestManageCartAddWithoutAnyResults(t *testing.T) {
	t.Parallel()

	ts := newTestState(t, "add it to my cart", 1)

	got, err := ManageCart(context.Background(), ts)
	if err != nil {
		t.Fatalf("ManageCart() error = %v", err)
	}
	if len(got.Cart.Items) != 0 {
		t.Fatalf("cart = %+v, want empty", got.Cart.Items)
	}
	if !strings.Contains(got.AgentResponse, "search for items first") {
		t.Fatalf("AgentResponse = %q", got.AgentResponse)
	}
}

func TestManageCartAddUsesRawEnvelopeWhenMetadataMissing(t *testing.T) {
	t.Parallel()

	ts := newTestState(t, "add the first one", 2)
	ts.SearchResults = []contractx.ScoredCandidate{{
		Score: 0.9,
		Raw: map[string]any{
			"properties": map[string]any{
				"metadata": map[string]any{"brand": "Nike", "product_type": "T-shirt", "price_inr": 999.0},
			},
		},
	}}

	got, err := ManageCart(context.Background(), ts)
	if err != nil {
		t.Fatalf("ManageCart() error = %v", err)
	}
	if len(got.Cart.Items) != 1 || got.Cart.Items[0].Brand != "Nike" || got.Cart.Items[0].Price != 999 {
		t.Fatalf("cart = %+v", got.Cart.Items)
	}
}

func TestManageCartViewPhraseWinsOverAddWords(t *testing.T) {
	t.Parallel()

	ts := newTestState(t, "I want to see what's in my cart", 2)
	ts.SearchResults = searchCandidates()

	got, err := ManageCart(context.Background(), ts)
	if err != nil {
		t.Fatalf("ManageCart() error = %v", err)
	}
	if got.CartAction != CartActionView {
		t.Fatalf("CartAction = %q, want view", got.CartAction)
	}
	if len(got.Cart.Items) != 0 {
		t.Fatalf("cart = %+v, nothing should be added", got.Cart.Items)
	}
}

func TestManageCartRemoveLastLine(t *testing.T) {
	t.Parallel()

	ts := newTestState(t, "remove that from my cart", 2)
	ts.Cart.AddItem(statex.CartItem{ProductName: "T-shirt", Brand: "Nike", Color: "Red", Price: 999})
	ts.Cart.AddItem(statex.CartItem{ProductName: "Jeans", Brand: "Levi's", Color: "Blue", Price: 1500})

	got, err := ManageCart(context.Background(), ts)
	if err != nil {
		t.Fatalf("ManageCart() error = %v", err)
	}
	if got.CartAction != CartActionRemove {
		t.Fatalf("CartAction = %q, want remove", got.CartAction)
	}
	if len(got.Cart.Items) != 1 || got.Cart.Items[0].ProductName != "T-shirt" {
		t.Fatalf("cart = %+v, want last line removed", got.Cart.Items)
	}
}

func TestManageCartRemoveFromEmptyCart(t *testing.T) {
	t.Parallel()

	ts := newTestState(t, "remove it", 1)
	got, err := ManageCart(context.Background(), ts)
	if err != nil {
		t.Fatalf("ManageCart() error = %v", err)
	}
	if !strings.Contains(got.AgentResponse, "already empty") {
		t.Fatalf("AgentResponse = %q", got.AgentResponse)
	}
}

func TestManageCartCheckout(t *testing.T) {
	t.Parallel()

	ts := newTestState(t, "proceed to checkout", 2)
	ts.Cart.AddItem(statex.CartItem{ProductName: "T-shirt", Brand: "Nike", Color: "Red", Price: 999})

	got, err := ManageCart(context.Background(), ts)
	if err != nil {
		t.Fatalf("ManageCart() error = %v", err)
	}
	if got.CartAction != CartActionCheckout {
		t.Fatalf("CartAction = %q, want checkout", got.CartAction)
	}
	if !strings.Contains(got.AgentResponse, "ready to checkout") {
		t.Fatalf("AgentResponse = %q", got.AgentResponse)
	}
}

func TestManageCartCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	ts := newTestState(t, "checkout", 1)
	got, err := ManageCart(context.Background(), ts)
	if err != nil {
		t.Fatalf("ManageCart() error = %v", err)
	}
	if !strings.Contains(got.AgentResponse, "cart is empty") {
		t.Fatalf("AgentResponse = %q", got.AgentResponse)
	}
}
