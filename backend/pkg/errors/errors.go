package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeExtraction represents PDF table extraction errors
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeStructuring represents oracle output that is not a valid fragment
	ErrorTypeStructuring ErrorType = "structuring"
	// ErrorTypeOracle represents failures talking to the language model
	ErrorTypeOracle ErrorType = "oracle"
	// ErrorTypePopulation represents fragments rejected before any graph write
	ErrorTypePopulation ErrorType = "population"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Extraction Errors

// ErrExtraction is returned when a PDF cannot be opened or its tables read.
// It is fatal for that document only.
type ErrExtraction struct {
	*BaseError
	Path string
}

func NewExtraction(path string, err error) *ErrExtraction {
	return &ErrExtraction{
		BaseError: NewBaseError(ErrorTypeExtraction, fmt.Sprintf("failed to extract tables from %s", path), err),
		Path:      path,
	}
}

// Structuring Errors

// ErrStructuringParse is returned when oracle output does not parse as a fragment
type ErrStructuringParse struct {
	*BaseError
	Page        int
	TableNumber int
	Content     string
}

func NewStructuringParse(page, tableNumber int, content string, err error) *ErrStructuringParse {
	return &ErrStructuringParse{
		BaseError:   NewBaseError(ErrorTypeStructuring, fmt.Sprintf("oracle output for page %d table %d is not a valid fragment", page, tableNumber), err),
		Page:        page,
		TableNumber: tableNumber,
		Content:     content,
	}
}

// ErrOracleFailed is returned when the language model request itself fails
type ErrOracleFailed struct {
	*BaseError
	Model    string
	Attempts int
}

func NewOracleFailed(model string, attempts int, err error) *ErrOracleFailed {
	return &ErrOracleFailed{
		BaseError: NewBaseError(ErrorTypeOracle, fmt.Sprintf("LLM request failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
	}
}

// ErrOracleNoResponse is returned when the LLM returns no choices
var ErrOracleNoResponse = NewBaseError(ErrorTypeOracle, "no response from LLM", nil)

// Population Errors

// ErrMissingShipIdentity is returned when a fragment has no usable answer to
// the ship identity question
type ErrMissingShipIdentity struct {
	*BaseError
	DocumentName string
}

func NewMissingShipIdentity(documentName string) *ErrMissingShipIdentity {
	return &ErrMissingShipIdentity{
		BaseError:    NewBaseError(ErrorTypePopulation, fmt.Sprintf("ship name not found in fragment of %q", documentName), nil),
		DocumentName: documentName,
	}
}

// ErrAmbiguousShipIdentity is returned when categories disagree on the ship name
type ErrAmbiguousShipIdentity struct {
	*BaseError
	DocumentName string
	Answers      []string
}

func NewAmbiguousShipIdentity(documentName string, answers []string) *ErrAmbiguousShipIdentity {
	return &ErrAmbiguousShipIdentity{
		BaseError:    NewBaseError(ErrorTypePopulation, fmt.Sprintf("conflicting ship names in fragment of %q: %s", documentName, strings.Join(answers, ", ")), nil),
		DocumentName: documentName,
		Answers:      answers,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphWrite is returned when a write transaction fails. The transaction
// is rolled back, so the fragment leaves nothing behind.
type ErrGraphWrite struct {
	*BaseError
	Statement string
}

func NewGraphWrite(statement string, err error) *ErrGraphWrite {
	return &ErrGraphWrite{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("write failed: %s", statement), err),
		Statement: statement,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// typed is satisfied by every error in this package through the embedded BaseError
type typed interface {
	errorType() ErrorType
}

func (e *BaseError) errorType() ErrorType { return e.Type }

// IsErrorType reports whether err, or anything it wraps, is of errType
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if t, ok := err.(typed); ok && t.errorType() == errType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsFatalForRun reports whether err must stop an ingestion run. Extraction
// errors are scoped to a single document; everything else stops the run.
func IsFatalForRun(err error) bool {
	if err == nil {
		return false
	}
	return !IsErrorType(err, ErrorTypeExtraction)
}
