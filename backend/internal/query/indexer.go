package query

import (
	"context"

	"go.uber.org/zap"

	"shipgraph/backend/internal/graph"
	"shipgraph/backend/internal/metrics"
	apperrors "shipgraph/backend/pkg/errors"
	"shipgraph/backend/pkg/logger"
)

// Indexer stores embeddings on Question nodes that do not have one yet
type Indexer struct {
	embedder Embedder
	store    graph.Store
	logger   *zap.Logger
}

// NewIndexer creates an indexer
func NewIndexer(embedder Embedder, store graph.Store) *Indexer {
	return &Indexer{
		embedder: embedder,
		store:    store,
		logger:   logger.Get(),
	}
}

// Backfill embeds every Question without an embedding and returns how many
// were written. Each embedding is committed on its own, so an interrupted
// backfill resumes where it stopped.
func (i *Indexer) Backfill(ctx context.Context) (int, error) {
	rows, err := i.store.Query(ctx, graph.UnembeddedQuestions())
	if err != nil {
		return 0, err
	}

	written := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return written, apperrors.NewContextCancelled("embedding backfill", err)
		}

		id := graph.GetString(row, "id")
		text := graph.GetString(row, "text")
		if id == "" || text == "" {
			continue
		}

		vector, err := i.embedder.Embed(ctx, text)
		if err != nil {
			return written, err
		}
		if err := i.store.Apply(ctx, []graph.Mutation{graph.SetEmbedding(id, vector)}); err != nil {
			return written, err
		}
		written++
		metrics.EmbeddingsBackfilled.Inc()
	}

	i.logger.Info("Embedding backfill finished",
		zap.Int("pending", len(rows)),
		zap.Int("written", written),
	)
	return written, nil
}
