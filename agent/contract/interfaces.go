package contract

import "context"

// Reasoner is the uniform capability every stage uses to obtain a judgment
// from the external reasoning service. Implementations bound each call with
// a timeout; callers apply their stage-specific fallback on error.
type Reasoner interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder converts text or an image file into a vector.
type Embedder interface {
	TextEmbedding(ctx context.Context, text string) ([]float64, error)
	ImageEmbedding(ctx context.Context, imagePath string) ([]float64, error)
}

// Searcher returns ranked candidates from the retrieval backend, already
// normalized (score semantics and metadata shape).
type Searcher interface {
	Search(ctx context.Context, vector []float64, limit int) ([]ScoredCandidate, error)
}

// Catalog executes one read-only query against the product catalog.
// Implementations must reject write-capable input before execution.
type Catalog interface {
	Query(ctx context.Context, query string) (QueryResult, error)
}
