package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/icsr-triage-engine/internal/domain"
)

// PostgresStore is a reference data provider backed by PostgreSQL. It expects
// the schema to already exist (created via migrations).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing connection.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL opens a pooled connection from a URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Lookup implements domain.ReferenceProvider.
func (s *PostgresStore) Lookup(ctx context.Context, drugName string) (*domain.ReferenceEntry, error) {
	entry := &domain.ReferenceEntry{}

	err := s.db.QueryRowContext(ctx,
		"SELECT drug_name, company, listed_terms FROM reference_entries WHERE drug_key = $1",
		normalizeKey(drugName),
	).Scan(&entry.DrugName, &entry.Company, pq.Array(&entry.ListedTerms))

	if err == sql.ErrNoRows {
		return nil, domain.ErrNoEntry
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up reference entry: %w", err)
	}
	return entry, nil
}

// Upsert inserts or replaces the entry for its drug name.
func (s *PostgresStore) Upsert(ctx context.Context, entry *domain.ReferenceEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reference_entries (drug_key, drug_name, company, listed_terms, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (drug_key) DO UPDATE SET
			drug_name = EXCLUDED.drug_name,
			company = EXCLUDED.company,
			listed_terms = EXCLUDED.listed_terms,
			updated_at = NOW()`,
		normalizeKey(entry.DrugName), entry.DrugName, entry.Company, pq.Array(entry.ListedTerms),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reference entry: %w", err)
	}
	return nil
}

// List returns all entries ordered by drug name.
func (s *PostgresStore) List(ctx context.Context) ([]*domain.ReferenceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT drug_name, company, listed_terms FROM reference_entries ORDER BY drug_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list reference entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ReferenceEntry
	for rows.Next() {
		entry := &domain.ReferenceEntry{}
		if err := rows.Scan(&entry.DrugName, &entry.Company, pq.Array(&entry.ListedTerms)); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
