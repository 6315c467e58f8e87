package query

import (
	"context"
	"errors"

	"shipgraph/backend/internal/graph"
)

var (
	// ErrInvalidQuery is returned when no intent can be read from the text.
	// Nothing is executed.
	ErrInvalidQuery = errors.New("query: no supported intent in question")

	// ErrNoEntity is returned when an intent was found but nothing to apply it to
	ErrNoEntity = errors.New("query: no entity found in question")

	// ErrNoMatch is returned when no stored question is similar enough.
	// It is an outcome, not an execution failure.
	ErrNoMatch = errors.New("query: no stored question above the similarity threshold")

	// ErrUnknownStrategy is returned for a strategy name the resolver does not have
	ErrUnknownStrategy = errors.New("query: unknown strategy")
)

// Candidate is one planned graph query. Similarity is set by the embedding
// strategy and is zero otherwise.
type Candidate struct {
	Query      graph.Query
	Similarity float64
	// Matched is the stored question text the candidate came from, if any
	Matched string
}

// Strategy turns natural-language text into graph queries
type Strategy interface {
	Name() string
	Plan(ctx context.Context, text string) ([]Candidate, error)
}
