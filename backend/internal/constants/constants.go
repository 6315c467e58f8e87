package constants

// Survey constants
const (
	// ShipIdentityQuestion is the question number whose answer names the ship
	ShipIdentityQuestion = "1.2"
)

// Pipeline constants
const (
	// DefaultChunkSize is the number of tables visited per structuring batch
	DefaultChunkSize = 5

	// RawTablesDir holds one raw-table artifact per ingested PDF
	RawTablesDir = "raw_tables"

	// StructuredArtifact is the accumulated fragment list of a run
	StructuredArtifact = "structured.json"

	// StructuredWorkbook is the optional spreadsheet export of a run
	StructuredWorkbook = "structured.xlsx"
)

// Query constants
const (
	// DefaultSimilarityThreshold is the minimum cosine similarity for an embedding match
	DefaultSimilarityThreshold = 0.2

	// StrategyHeuristic and StrategyEmbedding name the query resolution strategies
	StrategyHeuristic = "heuristic"
	StrategyEmbedding = "embedding"
)

// Graph labels and relationship types
const (
	LabelDocument = "Document"
	LabelCategory = "Category"
	LabelQuestion = "Question"
	LabelShip     = "Ship"

	RelHasCategory = "HAS_CATEGORY"
	RelHasQuestion = "HAS_QUESTION"
	RelHasDocument = "HAS_DOCUMENT"
)
