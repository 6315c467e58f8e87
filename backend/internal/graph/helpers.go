package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

// recordToRow flattens a driver record, converting nodes to their mapping form
func recordToRow(record *neo4j.Record) Row {
	row := make(Row, len(record.Keys))
	for i, key := range record.Keys {
		row[key] = convertValue(record.Values[i])
	}
	return row
}

func convertValue(val any) any {
	switch v := val.(type) {
	case neo4j.Node:
		return NodeView{ElementID: v.ElementId, Labels: v.Labels, Properties: v.Props}.ToRow()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = convertValue(item)
		}
		return out
	default:
		return val
	}
}

// GetString reads a string column, returning "" when absent or mistyped
func GetString(row Row, key string) string {
	val, ok := row[key]
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

// GetInt64 reads an integer column, accepting the widths the driver and
// the memory store produce
func GetInt64(row Row, key string) int64 {
	val, ok := row[key]
	if !ok || val == nil {
		return 0
	}
	switch i := val.(type) {
	case int64:
		return i
	case int:
		return int64(i)
	case float64:
		return int64(i)
	}
	return 0
}

// GetFloat64Slice reads a list-of-floats column such as an embedding
func GetFloat64Slice(row Row, key string) []float64 {
	val, ok := row[key]
	if !ok || val == nil {
		return nil
	}
	switch v := val.(type) {
	case []float64:
		return v
	case []any:
		result := make([]float64, 0, len(v))
		for _, item := range v {
			switch f := item.(type) {
			case float64:
				result = append(result, f)
			case float32:
				result = append(result, float64(f))
			case int64:
				result = append(result, float64(f))
			default:
				return nil
			}
		}
		return result
	}
	return nil
}
