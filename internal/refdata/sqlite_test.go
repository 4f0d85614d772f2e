package refdata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icsr-triage-engine/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "refdata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteStore_UpsertAndLookup(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	entry := &domain.ReferenceEntry{
		DrugName:    "Abiraterone",
		Company:     "Celix",
		ListedTerms: []string{"Nausea", "Hot flush"},
	}
	require.NoError(t, store.Upsert(ctx, entry))

	got, err := store.Lookup(ctx, "ABIRATERONE")
	require.NoError(t, err)
	assert.Equal(t, "Abiraterone", got.DrugName)
	assert.Equal(t, "Celix", got.Company)
	assert.Equal(t, []string{"Nausea", "Hot flush"}, got.ListedTerms)
}

func TestSQLiteStore_LookupUnknown(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Lookup(context.Background(), "mysteriline")
	assert.ErrorIs(t, err, domain.ErrNoEntry)
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &domain.ReferenceEntry{
		DrugName:    "Abiraterone",
		ListedTerms: []string{"Nausea"},
	}))
	require.NoError(t, store.Upsert(ctx, &domain.ReferenceEntry{
		DrugName:    "Abiraterone",
		Company:     "Celix",
		ListedTerms: []string{"Nausea", "Hypertension"},
	}))

	got, err := store.Lookup(ctx, "abiraterone")
	require.NoError(t, err)
	assert.Equal(t, "Celix", got.Company)
	assert.Equal(t, []string{"Nausea", "Hypertension"}, got.ListedTerms)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSQLiteStore_List(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zytiga", "Abiraterone", "Enzalutamide"} {
		require.NoError(t, store.Upsert(ctx, &domain.ReferenceEntry{DrugName: name}))
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Abiraterone", entries[0].DrugName)
	assert.Equal(t, "Enzalutamide", entries[1].DrugName)
	assert.Equal(t, "Zytiga", entries[2].DrugName)
}
