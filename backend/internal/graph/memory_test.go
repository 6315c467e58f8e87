package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipgraph/backend/internal/constants"
)

func TestMemoryStore_MatchWithoutRowsIsNoop(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// no Document named "missing", so the category is never merged
	require.NoError(t, store.Apply(ctx, []Mutation{
		MergeCategory("missing", "Safety"),
		CreateQuestion("Safety", "1", "q", "a"),
		LinkShipCategory("ghost", "Safety"),
	}))

	assert.Empty(t, store.Nodes(constants.LabelCategory))
	assert.Empty(t, store.Nodes(constants.LabelQuestion))
}

func TestMemoryStore_Queries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := NewPopulator(store).Populate(ctx, mustFragment(t, scenarioA))
	require.NoError(t, err)

	t.Run("list ships", func(t *testing.T) {
		rows, err := store.Query(ctx, ListShips())
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "MV Example", GetString(rows[0], "answer"))
	})

	t.Run("fetch by label", func(t *testing.T) {
		q, err := FetchByLabel(constants.LabelShip)
		require.NoError(t, err)
		rows, err := store.Query(ctx, q)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		node, ok := rows[0]["n"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []string{constants.LabelShip}, node["labels"])
		assert.Equal(t, map[string]any{"name": "MV Example"}, node["properties"])
	})

	t.Run("answer by text", func(t *testing.T) {
		rows, err := store.Query(ctx, AnswerByText("Crew size?"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "12", GetString(rows[0], "answer"))
	})

	t.Run("embeddings", func(t *testing.T) {
		rows, err := store.Query(ctx, UnembeddedQuestions())
		require.NoError(t, err)
		require.Len(t, rows, 2)

		id := GetString(rows[0], "id")
		require.NoError(t, store.Apply(ctx, []Mutation{SetEmbedding(id, []float64{1, 0, 0.5})}))

		rows, err = store.Query(ctx, UnembeddedQuestions())
		require.NoError(t, err)
		assert.Len(t, rows, 1)

		rows, err = store.Query(ctx, EmbeddedQuestions())
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Ship name?", GetString(rows[0], "text"))
		assert.Equal(t, []float64{1, 0, 0.5}, GetFloat64Slice(rows[0], "embedding"))
	})
}

func TestMemoryStore_EmbeddingTypeChecked(t *testing.T) {
	store := NewMemoryStore()
	err := store.Apply(context.Background(), []Mutation{{
		Kind:   MutationSetEmbedding,
		Cypher: cypherSetEmbedding,
		Params: map[string]any{"id": "mem:1", "embedding": "nope"},
	}})
	assert.Error(t, err)
}

func TestLabelQueries_RejectUnknownLabel(t *testing.T) {
	_, err := CountByLabel("Ship) DETACH DELETE (n")
	var unknown ErrUnknownLabel
	require.True(t, errors.As(err, &unknown))

	_, err = FetchByLabel("ships")
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "ships", unknown.Label)
}

func TestSummary(t *testing.T) {
	assert.Equal(t,
		"MATCH (s:Ship {name: $ship}) MATCH (d:Document {name: $document}) MERGE (s)-[:HAS_DOCUMENT]->(d)",
		Summary(cypherLinkShipDocument),
	)
}
