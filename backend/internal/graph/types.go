package graph

import "context"

// ============================================================================
// Store contract
// ============================================================================

// Row is one result record keyed by column name
type Row map[string]any

// Store executes the fixed statement set against a graph database
type Store interface {
	// Apply runs all mutations in one write transaction. On any failure
	// nothing is committed.
	Apply(ctx context.Context, mutations []Mutation) error

	// Query runs a read statement and returns its rows in store order
	Query(ctx context.Context, q Query) ([]Row, error)

	// Close releases the underlying connection
	Close(ctx context.Context) error
}

// SchemaInitializer is implemented by stores that can create constraints and indexes
type SchemaInitializer interface {
	EnsureSchema(ctx context.Context) error
}

// NodeView is the mapping form of a node returned by label fetches
type NodeView struct {
	ElementID  string         `json:"element_id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// ToRow converts the view into the mapping form callers receive
func (n NodeView) ToRow() map[string]any {
	return map[string]any{
		"element_id": n.ElementID,
		"labels":     n.Labels,
		"properties": n.Properties,
	}
}

// PopulateResult describes what one fragment wrote
type PopulateResult struct {
	Ship            string `json:"ship"`
	DocumentName    string `json:"document_name"`
	DocumentVersion string `json:"document_version"`
	Categories      int    `json:"categories"`
	Questions       int    `json:"questions"`
	Mutations       int    `json:"mutations"`
}
