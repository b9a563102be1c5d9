package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	contractx "github.com/pattadon/shoppilot/agent/contract"
)

const maxSearchResponseBytes = 8 << 20

// Weight split between content and context embeddings on the backend side.
const (
	contentEmbeddingWeight = 0.8
	contextEmbeddingWeight = 0.2
)

// VectorSearchConfig holds retrieval backend connection settings.
type VectorSearchConfig struct {
	URL        string        `envconfig:"URL" split_words:"true" required:"true"`
	Collection string        `envconfig:"COLLECTION" split_words:"true" default:"ret_shp"`
	AuthToken  string        `envconfig:"AUTH_TOKEN" split_words:"true"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
}

// VectorSearchClient implements contract.Searcher against the retrieval
// backend's REST API. Results are normalized before they leave this package:
// score semantics (score vs certainty vs distance) and the three
// historically-seen metadata envelope shapes all collapse into
// contract.ScoredCandidate.
type VectorSearchClient struct {
	baseURL    string
	collection string
	authToken  string
	httpClient *http.Client
}

func NewVectorSearchClient(cfg VectorSearchConfig) (*VectorSearchClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("vector search url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	collection := strings.TrimSpace(cfg.Collection)
	if collection == "" {
		return nil, errors.New("collection name is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &VectorSearchClient{
		baseURL:    baseURL,
		collection: collection,
		authToken:  strings.TrimSpace(cfg.AuthToken),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *VectorSearchClient) Search(ctx context.Context, vector []float64, limit int) ([]contractx.ScoredCandidate, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", contractx.ErrRetrieval)
	}
	if limit <= 0 {
		limit = 20
	}

	payload := map[string]any{
		"collection_name": c.collection,
		"query":           map[string]any{"vector": vector},
		"columns": map[string]float64{
			"content_embedding": contentEmbeddingWeight,
			"context_embedding": contextEmbeddingWeight,
		},
		"output_fields": []string{"category", "subcategory", "metadata"},
		"top_k":         limit,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrRetrieval, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: http status=%d body=%s", contractx.ErrRetrieval, resp.StatusCode, string(raw))
	}

	results, err := decodeResultEnvelope(raw)
	if err != nil {
		return nil, err
	}

	candidates := make([]contractx.ScoredCandidate, 0, len(results))
	for _, result := range results {
		candidates = append(candidates, NormalizeCandidate(result))
	}
	return candidates, nil
}

// decodeResultEnvelope accepts {"results": [...]}, {"data": [...]}, or a
// bare array — the three envelope shapes the backend has shipped over time.
func decodeResultEnvelope(raw []byte) ([]map[string]any, error) {
	var bare []map[string]any
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}

	var wrapped struct {
		Results []map[string]any `json:"results"`
		Data    []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if wrapped.Results != nil {
		return wrapped.Results, nil
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return nil, nil
}

// NormalizeCandidate converts one raw backend result into a ScoredCandidate.
func NormalizeCandidate(result map[string]any) contractx.ScoredCandidate {
	return contractx.ScoredCandidate{
		Score:    NormalizeScore(result),
		Metadata: NormalizeMetadata(result),
		Raw:      result,
	}
}

// NormalizeScore extracts a confidence score. Strategies in priority order:
// a direct "score", "_additional.certainty", "_additional.distance"
// (converted as 1-distance), a top-level "distance" (same conversion), and
// finally the 0.5 default.
func NormalizeScore(result map[string]any) float64 {
	if v, ok := asFloat(result["score"]); ok {
		return clampScore(v)
	}
	if additional, ok := result["_additional"].(map[string]any); ok {
		if v, ok := asFloat(additional["certainty"]); ok {
			return clampScore(v)
		}
		if v, ok := asFloat(additional["distance"]); ok {
			return clampScore(1.0 - v)
		}
	}
	if v, ok := asFloat(result["distance"]); ok {
		return clampScore(1.0 - v)
	}
	return 0.5
}

// NormalizeMetadata extracts product metadata from one raw result and fills
// the standardized key set with defaults. Extraction strategies in priority
// order: result.data.metadata, result.properties.metadata, result.metadata.
// A metadata value that arrives as a JSON string is parsed.
func NormalizeMetadata(result map[string]any) map[string]any {
	var raw any
	if data, ok := result["data"].(map[string]any); ok {
		raw = data["metadata"]
	} else if props, ok := result["properties"].(map[string]any); ok {
		raw = props["metadata"]
	} else {
		raw = result["metadata"]
	}

	metadata := map[string]any{}
	switch v := raw.(type) {
	case map[string]any:
		metadata = v
	case string:
		if err := json.Unmarshal([]byte(v), &metadata); err != nil {
			metadata = map[string]any{}
		}
	}

	price, _ := asFloat(metadata["price_inr"])
	category := "Fashion"
	subcategory := "Clothing"
	if data, ok := result["data"].(map[string]any); ok {
		if s, ok := data["category"].(string); ok && s != "" {
			category = s
		}
		if s, ok := data["subcategory"].(string); ok && s != "" {
			subcategory = s
		}
	}

	return map[string]any{
		"product_type": stringOr(metadata["product_type"], "Product"),
		"brand":        stringOr(metadata["brand"], "Unknown"),
		"color":        stringOr(metadata["color"], "N/A"),
		"material":     stringOr(metadata["material"], "N/A"),
		"gender":       stringOr(metadata["gender"], "Unisex"),
		"size":         stringOr(metadata["size"], "N/A"),
		"pattern":      stringOr(metadata["pattern"], "N/A"),
		"theme":        stringOr(metadata["theme"], "N/A"),
		"price_inr":    price,
		"product_id":   stringOr(metadata["image_id"], "unknown"),
		"image_id":     stringOr(metadata["image_id"], "unknown"),
		"fit":          stringOr(metadata["fit"], "N/A"),
		"sleeve_type":  stringOr(metadata["sleeve_type"], "N/A"),
		"neck_type":    stringOr(metadata["neck_type"], "N/A"),
		"visual_tags":  sliceOr(metadata["visual_tags"]),
		"category":     category,
		"subcategory":  subcategory,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func sliceOr(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return []any{}
}
