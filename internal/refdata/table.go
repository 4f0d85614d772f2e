// Package refdata provides the reference safety information lookup behind
// the listedness assessment. A provider resolves a canonical drug name to
// its ReferenceEntry; backends range from an in-memory table loaded from
// YAML to SQLite and PostgreSQL stores, with optional LRU and Redis caching
// layers and a circuit breaker for remote backends.
package refdata

import (
	"context"
	"strings"

	"github.com/icsr-triage-engine/internal/domain"
)

// Table is an immutable in-memory provider. It backs the file-based
// deployment mode and the tests of everything layered above a provider.
type Table struct {
	entries map[string]*domain.ReferenceEntry
}

// NewTable indexes the given entries by lowercased drug name. Later
// duplicates replace earlier ones.
func NewTable(entries []domain.ReferenceEntry) *Table {
	t := &Table{entries: make(map[string]*domain.ReferenceEntry, len(entries))}
	for i := range entries {
		e := entries[i]
		key := normalizeKey(e.DrugName)
		if key == "" {
			continue
		}
		t.entries[key] = &e
	}
	return t
}

// Lookup implements domain.ReferenceProvider.
func (t *Table) Lookup(_ context.Context, drugName string) (*domain.ReferenceEntry, error) {
	entry, ok := t.entries[normalizeKey(drugName)]
	if !ok {
		return nil, domain.ErrNoEntry
	}
	return entry, nil
}

// Len returns the number of indexed entries.
func (t *Table) Len() int {
	return len(t.entries)
}

func normalizeKey(drugName string) string {
	return strings.ToLower(strings.TrimSpace(drugName))
}
