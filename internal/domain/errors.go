package domain

import (
	"errors"
	"fmt"
)

// Error codes used on API error responses.
const (
	ErrCodeParse          = "PARSE_ERROR"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeReferenceData  = "REFERENCE_DATA_ERROR"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
	ErrCodeRateLimit      = "RATE_LIMIT_EXCEEDED"
)

// ErrNoEntry is returned by reference data providers when no reference safety
// information exists for a drug. It is non-fatal: the listedness assessment
// downgrades the affected events to unassessable.
var ErrNoEntry = errors.New("no reference entry for drug")

// ParseError reports a malformed or structurally unexpected XML document. It
// is fatal for the affected case only; the batch continues and the case is
// represented in the output table by an error marker.
type ParseError struct {
	Source  string // file name or upload identifier
	Element string // offending element, when known
	Line    int    // line within the document, when known
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch {
	case e.Element != "" && e.Line > 0:
		return fmt.Sprintf("parse %s: element <%s> at line %d: %v", e.Source, e.Element, e.Line, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("parse %s: line %d: %v", e.Source, e.Line, e.Err)
	case e.Element != "":
		return fmt.Sprintf("parse %s: element <%s>: %v", e.Source, e.Element, e.Err)
	default:
		return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps err as a ParseError for the given source document.
func NewParseError(source, element string, line int, err error) *ParseError {
	return &ParseError{Source: source, Element: element, Line: line, Err: err}
}
