package refdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icsr-triage-engine/internal/domain"
)

func TestTable_Lookup(t *testing.T) {
	table := NewTable([]domain.ReferenceEntry{
		{DrugName: "Abiraterone", Company: "Celix", ListedTerms: []string{"Nausea", "Hot flush"}},
		{DrugName: "Enzalutamide", Company: "Celix", ListedTerms: []string{"Fatigue"}},
	})

	tests := []struct {
		name     string
		drug     string
		wantName string
		wantErr  error
	}{
		{"Exact match", "Abiraterone", "Abiraterone", nil},
		{"Case-insensitive match", "ABIRATERONE", "Abiraterone", nil},
		{"Whitespace trimmed", " abiraterone ", "Abiraterone", nil},
		{"Unknown drug", "Mysteriline", "", domain.ErrNoEntry},
		{"Empty name", "", "", domain.ErrNoEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := table.Lookup(context.Background(), tt.drug)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, entry.DrugName)
		})
	}
}

func TestParse(t *testing.T) {
	doc := `
entries:
  - drug: Abiraterone
    company: Celix
    listed_terms:
      - Nausea
      - Hot flush
  - drug: Enzalutamide
    company: Celix
    listed_terms:
      - Fatigue
`
	table, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	entry, err := table.Lookup(context.Background(), "abiraterone")
	require.NoError(t, err)
	assert.Equal(t, "Celix", entry.Company)
	assert.Equal(t, []string{"Nausea", "Hot flush"}, entry.ListedTerms)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Invalid YAML", "entries: ["},
		{"Entry without drug name", "entries:\n  - company: Celix\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
