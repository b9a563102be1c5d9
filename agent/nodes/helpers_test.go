package node

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/pattadon/shoppilot/agent/contract"
	statex "github.com/pattadon/shoppilot/agent/state"
)

// scriptedReasoner returns canned replies in order and records every request.
type scriptedReasoner struct {
	replies  []string
	err      error
	requests []contractx.CompletionRequest
}

func (s *scriptedReasoner) Complete(ctx context.Context, req contractx.CompletionRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("scripted reasoner exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type fakeEmbedder struct {
	textVector  []float64
	imageVector []float64
	textErr     error
	imageErr    error
}

func (f *fakeEmbedder) TextEmbedding(ctx context.Context, text string) ([]float64, error) {
	return f.textVector, f.textErr
}

func (f *fakeEmbedder) ImageEmbedding(ctx context.Context, imagePath string) ([]float64, error) {
	return f.imageVector, f.imageErr
}

type fakeSearcher struct {
	results []contractx.ScoredCandidate
	err     error
	vectors [][]float64
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float64, limit int) ([]contractx.ScoredCandidate, error) {
	f.vectors = append(f.vectors, vector)
	return f.results, f.err
}

type fakeCatalog struct {
	result  contractx.QueryResult
	err     error
	queries []string
}

func (f *fakeCatalog) Query(ctx context.Context, query string) (contractx.QueryResult, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return contractx.QueryResult{}, f.err
	}
	return f.result, nil
}

func newTestState(t *testing.T, input string, turn int) *TurnState {
	t.Helper()
	session := statex.NewSession("test-session")
	session.TurnCount = turn
	ts, err := NewTurnState(input, "", turn, session, time.Now())
	if err != nil {
		t.Fatalf("NewTurnState() error = %v", err)
	}
	return ts
}

func candidateWithMetadata(score float64, metadata map[string]any) contractx.ScoredCandidate {
	return contractx.ScoredCandidate{Score: score, Metadata: metadata}
}
