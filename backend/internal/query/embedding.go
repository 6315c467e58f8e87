package query

import (
	"context"
	"math"

	"go.uber.org/zap"

	"shipgraph/backend/internal/constants"
	"shipgraph/backend/internal/graph"
	"shipgraph/backend/pkg/logger"
)

// Embedder returns the embedding vector of a text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CosineSimilarity returns the cosine of the angle between a and b. Vectors of
// different length or with zero norm are not comparable.
func CosineSimilarity(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

// EmbeddingStrategy matches the question against stored Question embeddings
type EmbeddingStrategy struct {
	embedder  Embedder
	store     graph.Store
	threshold float64
	logger    *zap.Logger
}

// NewEmbeddingStrategy creates the strategy. Matches must score strictly
// above threshold.
func NewEmbeddingStrategy(embedder Embedder, store graph.Store, threshold float64) *EmbeddingStrategy {
	return &EmbeddingStrategy{
		embedder:  embedder,
		store:     store,
		threshold: threshold,
		logger:    logger.Get(),
	}
}

// Name implements Strategy
func (s *EmbeddingStrategy) Name() string {
	return constants.StrategyEmbedding
}

// Plan implements Strategy. Candidates keep store order and are neither
// ranked nor deduplicated. No candidate is ErrNoMatch.
func (s *EmbeddingStrategy) Plan(ctx context.Context, text string) ([]Candidate, error) {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.Query(ctx, graph.EmbeddedQuestions())
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0)
	skipped := 0
	for _, row := range rows {
		similarity, ok := CosineSimilarity(vector, graph.GetFloat64Slice(row, "embedding"))
		if !ok {
			skipped++
			continue
		}
		if similarity <= s.threshold {
			continue
		}
		stored := graph.GetString(row, "text")
		candidates = append(candidates, Candidate{
			Query:      graph.AnswerByText(stored),
			Similarity: similarity,
			Matched:    stored,
		})
	}

	s.logger.Debug("Embedding candidates",
		zap.Int("stored", len(rows)),
		zap.Int("matched", len(candidates)),
		zap.Int("incomparable", skipped),
		zap.Float64("threshold", s.threshold),
	)

	if len(candidates) == 0 {
		return nil, ErrNoMatch
	}
	return candidates, nil
}
