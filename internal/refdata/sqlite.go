package refdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/icsr-triage-engine/internal/domain"
)

// SQLiteStore is a reference data provider backed by a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary creates) the database at dbPath and
// ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for concurrent readers during batch runs
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEntry scans a row into a ReferenceEntry, decoding the JSON term list.
func scanEntry(s scanner) (*domain.ReferenceEntry, error) {
	entry := &domain.ReferenceEntry{}
	var termsJSON string

	if err := s.Scan(&entry.DrugName, &entry.Company, &termsJSON); err != nil {
		return nil, err
	}
	if termsJSON != "" {
		if err := json.Unmarshal([]byte(termsJSON), &entry.ListedTerms); err != nil {
			return nil, fmt.Errorf("failed to decode listed terms: %w", err)
		}
	}
	return entry, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reference_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		drug_key TEXT NOT NULL UNIQUE,
		drug_name TEXT NOT NULL,
		company TEXT DEFAULT '',
		listed_terms TEXT NOT NULL DEFAULT '[]',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reference_drug_key ON reference_entries(drug_key);
	`

	_, err := db.Exec(schema)
	return err
}

// Lookup implements domain.ReferenceProvider.
func (s *SQLiteStore) Lookup(ctx context.Context, drugName string) (*domain.ReferenceEntry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT drug_name, company, listed_terms FROM reference_entries WHERE drug_key = ?",
		normalizeKey(drugName),
	)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNoEntry
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up reference entry: %w", err)
	}
	return entry, nil
}

// Upsert inserts or replaces the entry for its drug name.
func (s *SQLiteStore) Upsert(ctx context.Context, entry *domain.ReferenceEntry) error {
	termsJSON, err := json.Marshal(entry.ListedTerms)
	if err != nil {
		return fmt.Errorf("failed to encode listed terms: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reference_entries (drug_key, drug_name, company, listed_terms, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(drug_key) DO UPDATE SET
			drug_name = excluded.drug_name,
			company = excluded.company,
			listed_terms = excluded.listed_terms,
			updated_at = CURRENT_TIMESTAMP`,
		normalizeKey(entry.DrugName), entry.DrugName, entry.Company, string(termsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reference entry: %w", err)
	}
	return nil
}

// List returns all entries ordered by drug name.
func (s *SQLiteStore) List(ctx context.Context) ([]*domain.ReferenceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT drug_name, company, listed_terms FROM reference_entries ORDER BY drug_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list reference entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ReferenceEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
