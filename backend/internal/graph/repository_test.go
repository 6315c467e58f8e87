package graph

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipgraph/backend/internal/constants"
)

// The repository tests require a running Neo4j instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables.
func testRepository(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := Connect(ctx, uri, os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"), os.Getenv("NEO4J_DATABASE"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return repo
}

func cleanup(t *testing.T, repo *Repository, document, ship string) {
	t.Helper()
	ctx := context.Background()
	session := repo.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: repo.database})
	defer session.Close(ctx)

	stmts := []string{
		"MATCH (d:Document {name: $document})-[:HAS_CATEGORY]->(c:Category)-[:HAS_QUESTION]->(q:Question) DETACH DELETE q",
		"MATCH (d:Document {name: $document})-[:HAS_CATEGORY]->(c:Category) DETACH DELETE c",
		"MATCH (d:Document {name: $document}) DETACH DELETE d",
		"MATCH (s:Ship {name: $ship}) DETACH DELETE s",
	}
	for _, stmt := range stmts {
		_, _ = session.Run(ctx, stmt, map[string]any{"document": document, "ship": ship})
	}
}

func TestRepository_PopulateTwice(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	suffix := time.Now().Format("20060102150405")
	document := "it-doc-" + suffix
	ship := "it-ship-" + suffix
	category := "it-cat-" + suffix
	t.Cleanup(func() { cleanup(t, repo, document, ship) })

	f := mustFragment(t, `{"Document Name":"`+document+`","Document Version":"v1","Categories":{"`+category+`":[`+
		`{"Question Number":"1.2","Question":"Ship name?","Answer":"`+ship+`"},`+
		`{"Question Number":"2.1","Question":"Crew size?","Answer":"12"}]}}`)

	p := NewPopulator(repo)
	_, err := p.Populate(ctx, f)
	require.NoError(t, err)
	_, err = p.Populate(ctx, f)
	require.NoError(t, err)

	rows, err := repo.Query(ctx, Query{
		Kind:   QueryCountLabel,
		Cypher: "MATCH (d:Document {name: $document}) RETURN count(d) AS count",
		Params: map[string]any{"document": document},
		Label:  constants.LabelDocument,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), GetInt64(rows[0], "count"))

	rows, err = repo.Query(ctx, Query{
		Kind:   QueryCountLabel,
		Cypher: "MATCH (:Category {name: $category})-[:HAS_QUESTION]->(q:Question) RETURN count(q) AS count",
		Params: map[string]any{"category": category},
		Label:  constants.LabelQuestion,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), GetInt64(rows[0], "count"))
}

func TestRepository_ApplyRollsBack(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	document := "it-rollback-" + time.Now().Format("20060102150405")
	t.Cleanup(func() { cleanup(t, repo, document, "") })

	err := repo.Apply(ctx, []Mutation{
		MergeDocument(document, "v1"),
		{Kind: MutationMergeShip, Cypher: "THIS IS NOT CYPHER", Params: map[string]any{}},
	})
	require.Error(t, err)

	rows, err := repo.Query(ctx, Query{
		Kind:   QueryCountLabel,
		Cypher: "MATCH (d:Document {name: $document}) RETURN count(d) AS count",
		Params: map[string]any{"document": document},
		Label:  constants.LabelDocument,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), GetInt64(rows[0], "count"))
}
