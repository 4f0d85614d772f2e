package refdata

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/icsr-triage-engine/internal/domain"
)

// fileDocument is the YAML shape of a reference data file.
type fileDocument struct {
	Entries []fileEntry `yaml:"entries"`
}

type fileEntry struct {
	Drug        string   `yaml:"drug"`
	Company     string   `yaml:"company"`
	ListedTerms []string `yaml:"listed_terms"`
}

// LoadFile reads a YAML reference data file into an in-memory Table. Entries
// without a drug name are rejected so that a malformed file fails loudly at
// startup instead of silently shrinking the reference data.
func LoadFile(path string, logger *logrus.Logger) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference data: %w", err)
	}

	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing reference data %s: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"path":    path,
		"entries": table.Len(),
	}).Info("Loaded reference data")

	return table, nil
}

// Parse decodes YAML reference data into a Table.
func Parse(data []byte) (*Table, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	entries := make([]domain.ReferenceEntry, 0, len(doc.Entries))
	for i, fe := range doc.Entries {
		if fe.Drug == "" {
			return nil, fmt.Errorf("entry %d has no drug name", i)
		}
		entries = append(entries, domain.ReferenceEntry{
			DrugName:    fe.Drug,
			Company:     fe.Company,
			ListedTerms: fe.ListedTerms,
		})
	}
	return NewTable(entries), nil
}
