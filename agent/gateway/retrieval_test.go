package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	contractx "github.com/pattadon/shoppilot/agent/contract"
)

func TestNormalizeScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		result map[string]any
		want   float64
	}{
		{"direct score", map[string]any{"score": 0.91}, 0.91},
		{"certainty", map[string]any{"_additional": map[string]any{"certainty": 0.8}}, 0.8},
		{"additional distance", map[string]any{"_additional": map[string]any{"distance": 0.3}}, 0.7},
		{"top-level distance", map[string]any{"distance": 0.25}, 0.75},
		{"score wins over certainty", map[string]any{"score": 0.4, "_additional": map[string]any{"certainty": 0.9}}, 0.4},
		{"nothing", map[string]any{}, 0.5},
		{"clamped high", map[string]any{"score": 3.0}, 1.0},
		{"clamped low", map[string]any{"distance": 1.8}, 0.0},
		{"string score", map[string]any{"score": "0.6"}, 0.6},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeScore(tc.result)
			if got < tc.want-1e-9 || got > tc.want+1e-9 {
				t.Fatalf("NormalizeScore() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizeMetadataEnvelopes(t *testing.T) {
	t.Parallel()

	inner := map[string]any{
		"product_type": "T-shirt",
		"brand":        "Nike",
		"color":        "Red",
		"price_inr":    999.0,
		"image_id":     "img-42",
	}

	cases := []struct {
		name   string
		result map[string]any
	}{
		{"data envelope", map[string]any{"data": map[string]any{"metadata": inner}}},
		{"properties envelope", map[string]any{"properties": map[string]any{"metadata": inner}}},
		{"flat metadata", map[string]any{"metadata": inner}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeMetadata(tc.result)
			if got["brand"] != "Nike" || got["product_type"] != "T-shirt" {
				t.Fatalf("NormalizeMetadata() = %v", got)
			}
			if got["price_inr"] != 999.0 {
				t.Fatalf("price_inr = %v, want 999", got["price_inr"])
			}
			if got["product_id"] != "img-42" || got["image_id"] != "img-42" {
				t.Fatalf("ids = %v/%v, want img-42", got["product_id"], got["image_id"])
			}
		})
	}
}

func TestNormalizeMetadataJSONString(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(map[string]any{"brand": "Puma", "color": "Blue"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got := NormalizeMetadata(map[string]any{"metadata": string(encoded)})
	if got["brand"] != "Puma" || got["color"] != "Blue" {
		t.Fatalf("NormalizeMetadata() = %v", got)
	}
}

func TestNormalizeMetadataDefaults(t *testing.T) {
	t.Parallel()

	got := NormalizeMetadata(map[string]any{})
	wants := map[string]any{
		"product_type": "Product",
		"brand":        "Unknown",
		"color":        "N/A",
		"gender":       "Unisex",
		"price_inr":    0.0,
		"product_id":   "unknown",
		"category":     "Fashion",
		"subcategory":  "Clothing",
	}
	for k, want := range wants {
		if got[k] != want {
			t.Fatalf("%s = %v, want %v", k, got[k], want)
		}
	}
	if tags, ok := got["visual_tags"].([]any); !ok || len(tags) != 0 {
		t.Fatalf("visual_tags = %v, want empty slice", got["visual_tags"])
	}
}

func TestVectorSearchClientSearch(t *testing.T) {
	t.Parallel()

	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.URL.Path != "/search" {
			t.Errorf("path = %s, want /search", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		fmt.Fprint(w, `{"results":[{"score":0.9,"metadata":{"brand":"Nike"}},{"distance":0.2,"metadata":{"brand":"Puma"}}]}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewVectorSearchClient(VectorSearchConfig{URL: server.URL, Collection: "ret_shp"})
	if err != nil {
		t.Fatalf("NewVectorSearchClient() error = %v", err)
	}

	candidates, err := client.Search(context.Background(), []float64{0.1, 0.2}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(candidates))
	}
	if candidates[0].Score != 0.9 || candidates[0].Metadata["brand"] != "Nike" {
		t.Fatalf("candidates[0] = %+v", candidates[0])
	}
	if candidates[1].Score != 0.8 {
		t.Fatalf("candidates[1].Score = %v, want 0.8", candidates[1].Score)
	}

	if gotPayload["collection_name"] != "ret_shp" {
		t.Fatalf("collection_name = %v", gotPayload["collection_name"])
	}
	if gotPayload["top_k"] != 10.0 {
		t.Fatalf("top_k = %v, want 10", gotPayload["top_k"])
	}
}

func TestVectorSearchClientBareArrayEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"score":0.7}]`)
	}))
	t.Cleanup(server.Close)

	client, err := NewVectorSearchClient(VectorSearchConfig{URL: server.URL, Collection: "ret_shp"})
	if err != nil {
		t.Fatalf("NewVectorSearchClient() error = %v", err)
	}

	candidates, err := client.Search(context.Background(), []float64{0.1}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].Score != 0.7 {
		t.Fatalf("candidates = %+v", candidates)
	}
}

func TestVectorSearchClientEmptyVector(t *testing.T) {
	t.Parallel()

	client, err := NewVectorSearchClient(VectorSearchConfig{URL: "http://localhost:9", Collection: "ret_shp"})
	if err != nil {
		t.Fatalf("NewVectorSearchClient() error = %v", err)
	}

	_, err = client.Search(context.Background(), nil, 5)
	if !errors.Is(err, contractx.ErrRetrieval) {
		t.Fatalf("error = %v, want ErrRetrieval", err)
	}
}

func TestVectorSearchClientHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := NewVectorSearchClient(VectorSearchConfig{URL: server.URL, Collection: "ret_shp"})
	if err != nil {
		t.Fatalf("NewVectorSearchClient() error = %v", err)
	}

	_, err = client.Search(context.Background(), []float64{0.1}, 5)
	if !errors.Is(err, contractx.ErrRetrieval) {
		t.Fatalf("error = %v, want ErrRetrieval", err)
	}
}
