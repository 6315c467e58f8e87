package graph

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"shipgraph/backend/internal/constants"
)

// ============================================================================
// Write statements
// ============================================================================

// MutationKind identifies one of the fixed write statements
type MutationKind int

const (
	MutationMergeDocument MutationKind = iota + 1
	MutationMergeCategory
	MutationCreateQuestion
	MutationMergeShip
	MutationLinkShipDocument
	MutationLinkShipCategory
	MutationSetEmbedding
)

func (k MutationKind) String() string {
	switch k {
	case MutationMergeDocument:
		return "merge_document"
	case MutationMergeCategory:
		return "merge_category"
	case MutationCreateQuestion:
		return "create_question"
	case MutationMergeShip:
		return "merge_ship"
	case MutationLinkShipDocument:
		return "link_ship_document"
	case MutationLinkShipCategory:
		return "link_ship_category"
	case MutationSetEmbedding:
		return "set_embedding"
	}
	return fmt.Sprintf("mutation(%d)", int(k))
}

// Mutation is a parameterized write. Every literal travels in Params.
type Mutation struct {
	Kind   MutationKind
	Cypher string
	Params map[string]any
}

const (
	cypherMergeDocument = `MERGE (d:Document {name: $name, version: $version}) RETURN d`

	cypherMergeCategory = `MATCH (d:Document {name: $document})
MERGE (c:Category {name: $category})
MERGE (d)-[:HAS_CATEGORY]->(c)
RETURN c`

	cypherCreateQuestion = `MATCH (c:Category {name: $category})
CREATE (q:Question {number: $number, text: $text, answer: $answer})
MERGE (c)-[:HAS_QUESTION]->(q)
RETURN q`

	cypherMergeShip = `MERGE (s:Ship {name: $ship}) RETURN s`

	cypherLinkShipDocument = `MATCH (s:Ship {name: $ship})
MATCH (d:Document {name: $document})
MERGE (s)-[:HAS_DOCUMENT]->(d)`

	cypherLinkShipCategory = `MATCH (s:Ship {name: $ship})
MATCH (c:Category {name: $category})
MERGE (s)-[:HAS_CATEGORY]->(c)`

	cypherSetEmbedding = `MATCH (q:Question) WHERE elementId(q) = $id
SET q.embedding = $embedding`
)

func MergeDocument(name, version string) Mutation {
	return Mutation{Kind: MutationMergeDocument, Cypher: cypherMergeDocument, Params: map[string]any{
		"name":    name,
		"version": version,
	}}
}

func MergeCategory(document, category string) Mutation {
	return Mutation{Kind: MutationMergeCategory, Cypher: cypherMergeCategory, Params: map[string]any{
		"document": document,
		"category": category,
	}}
}

func CreateQuestion(category, number, text, answer string) Mutation {
	return Mutation{Kind: MutationCreateQuestion, Cypher: cypherCreateQuestion, Params: map[string]any{
		"category": category,
		"number":   number,
		"text":     text,
		"answer":   answer,
	}}
}

func MergeShip(ship string) Mutation {
	return Mutation{Kind: MutationMergeShip, Cypher: cypherMergeShip, Params: map[string]any{
		"ship": ship,
	}}
}

func LinkShipDocument(ship, document string) Mutation {
	return Mutation{Kind: MutationLinkShipDocument, Cypher: cypherLinkShipDocument, Params: map[string]any{
		"ship":     ship,
		"document": document,
	}}
}

func LinkShipCategory(ship, category string) Mutation {
	return Mutation{Kind: MutationLinkShipCategory, Cypher: cypherLinkShipCategory, Params: map[string]any{
		"ship":     ship,
		"category": category,
	}}
}

// SetEmbedding stores an embedding vector on a Question node
func SetEmbedding(questionID string, embedding []float64) Mutation {
	return Mutation{Kind: MutationSetEmbedding, Cypher: cypherSetEmbedding, Params: map[string]any{
		"id":        questionID,
		"embedding": embedding,
	}}
}

// ============================================================================
// Read statements
// ============================================================================

// QueryKind identifies one of the fixed read statements
type QueryKind int

const (
	QueryListShips QueryKind = iota + 1
	QueryCountLabel
	QueryFetchLabel
	QueryEmbeddedQuestions
	QueryUnembeddedQuestions
	QueryAnswerByText
)

func (k QueryKind) String() string {
	switch k {
	case QueryListShips:
		return "list_ships"
	case QueryCountLabel:
		return "count_label"
	case QueryFetchLabel:
		return "fetch_label"
	case QueryEmbeddedQuestions:
		return "embedded_questions"
	case QueryUnembeddedQuestions:
		return "unembedded_questions"
	case QueryAnswerByText:
		return "answer_by_text"
	}
	return fmt.Sprintf("query(%d)", int(k))
}

// Query is a parameterized read. Label is only set for label-scoped queries
// and is always a member of SchemaLabels.
type Query struct {
	Kind   QueryKind
	Cypher string
	Params map[string]any
	Label  string
}

// SchemaLabels is the closed set of node labels a query may be scoped to
var SchemaLabels = mapset.NewSet[string](
	constants.LabelDocument,
	constants.LabelCategory,
	constants.LabelQuestion,
	constants.LabelShip,
)

// ErrUnknownLabel is returned when a label is not part of the schema
type ErrUnknownLabel struct {
	Label string
}

func (e ErrUnknownLabel) Error() string {
	return fmt.Sprintf("label %q is not part of the graph schema", e.Label)
}

// ListShips returns the answers to the ship identity question
func ListShips() Query {
	return Query{
		Kind:   QueryListShips,
		Cypher: `MATCH (q:Question {number: $number}) RETURN q.answer AS answer`,
		Params: map[string]any{"number": constants.ShipIdentityQuestion},
	}
}

// CountByLabel counts the nodes carrying a schema label
func CountByLabel(label string) (Query, error) {
	if !SchemaLabels.Contains(label) {
		return Query{}, ErrUnknownLabel{Label: label}
	}
	// label is drawn from SchemaLabels, so splicing it is safe
	return Query{
		Kind:   QueryCountLabel,
		Cypher: "MATCH (n:" + label + ") RETURN count(n) AS count",
		Params: map[string]any{},
		Label:  label,
	}, nil
}

// FetchByLabel returns the nodes carrying a schema label
func FetchByLabel(label string) (Query, error) {
	if !SchemaLabels.Contains(label) {
		return Query{}, ErrUnknownLabel{Label: label}
	}
	return Query{
		Kind:   QueryFetchLabel,
		Cypher: "MATCH (n:" + label + ") RETURN n",
		Params: map[string]any{},
		Label:  label,
	}, nil
}

// EmbeddedQuestions returns every Question that carries an embedding
func EmbeddedQuestions() Query {
	return Query{
		Kind: QueryEmbeddedQuestions,
		Cypher: `MATCH (q:Question) WHERE q.embedding IS NOT NULL
RETURN elementId(q) AS id, q.text AS text, q.embedding AS embedding`,
		Params: map[string]any{},
	}
}

// UnembeddedQuestions returns every Question still lacking an embedding
func UnembeddedQuestions() Query {
	return Query{
		Kind: QueryUnembeddedQuestions,
		Cypher: `MATCH (q:Question) WHERE q.embedding IS NULL
RETURN elementId(q) AS id, q.text AS text`,
		Params: map[string]any{},
	}
}

// AnswerByText matches Question nodes by exact text
func AnswerByText(text string) Query {
	return Query{
		Kind:   QueryAnswerByText,
		Cypher: `MATCH (q:Question) WHERE q.text = $text RETURN q.answer AS answer`,
		Params: map[string]any{"text": text},
	}
}

// Summary renders a statement for logs and errors without its parameters
func Summary(cypher string) string {
	return strings.Join(strings.Fields(cypher), " ")
}
