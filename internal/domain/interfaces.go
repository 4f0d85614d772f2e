package domain

import "context"

// ReferenceProvider is the read-only lookup of per-drug reference safety
// information. Lookup returns ErrNoEntry when no entry exists for the drug;
// implementations must be safe for concurrent use because the batch runner
// evaluates cases in parallel.
type ReferenceProvider interface {
	// Lookup resolves the reference entry for a drug name. Matching is
	// case-insensitive on the canonical drug identity.
	Lookup(ctx context.Context, drugName string) (*ReferenceEntry, error)
}

// TermMapper resolves MedDRA LLT codes to terms and rolls LLT terms up to
// their preferred terms. Implementations return empty strings for unknown
// codes or terms.
type TermMapper interface {
	// LLTTerm returns the LLT term for a code, or "" when unmapped.
	LLTTerm(code string) string
	// PTTerm returns the preferred term an LLT code rolls up to, or "".
	PTTerm(code string) string
	// PTForTerm returns the preferred term for an LLT term, or "".
	PTForTerm(term string) string
}

// Extractor parses one raw XML document into a canonical case record.
type Extractor interface {
	Extract(source string, data []byte) (*CaseRecord, error)
}

// CaseEvaluator runs the full assessment pipeline for one extracted document.
type CaseEvaluator interface {
	Evaluate(ctx context.Context, source string, data []byte) *CaseOutcomeRecord
}
