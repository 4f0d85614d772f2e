// Package meddra provides the MedDRA LLT/PT term mapping used to resolve the
// coded reaction terms transmitted in E2B(R3) documents and to recognize
// synonym matches during the listedness assessment.
package meddra

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Mapping is an immutable LLT code -> (LLT term, PT term) table. It is loaded
// once at process start and shared read-only across all case evaluations.
type Mapping struct {
	byCode map[string]entry
	byTerm map[string]string // normalized LLT term -> PT term
}

type entry struct {
	lltTerm string
	ptTerm  string
}

// NewMapping builds a mapping from parallel code/term/pt rows. Intended for
// tests and embedded defaults.
func NewMapping(rows [][3]string) *Mapping {
	m := &Mapping{
		byCode: make(map[string]entry, len(rows)),
		byTerm: make(map[string]string, len(rows)),
	}
	for _, row := range rows {
		code := strings.TrimSpace(row[0])
		if code == "" {
			continue
		}
		e := entry{lltTerm: strings.TrimSpace(row[1]), ptTerm: strings.TrimSpace(row[2])}
		m.byCode[code] = e
		if e.lltTerm != "" {
			m.byTerm[normalize(e.lltTerm)] = e.ptTerm
		}
	}
	return m
}

// LoadFile reads a mapping CSV with header "LLT Code,LLT Term,PT Term".
// Column order follows the header; unknown columns are ignored.
func LoadFile(path string, logger *logrus.Logger) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening meddra mapping: %w", err)
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("reading meddra mapping %s: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"path":  path,
		"terms": len(m.byCode),
	}).Info("Loaded MedDRA mapping")

	return m, nil
}

// Load reads a mapping CSV from r.
func Load(r io.Reader) (*Mapping, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	codeIdx, lltIdx, ptIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "llt code":
			codeIdx = i
		case "llt term":
			lltIdx = i
		case "pt term":
			ptIdx = i
		}
	}
	if codeIdx < 0 || lltIdx < 0 {
		return nil, fmt.Errorf("mapping header missing LLT Code / LLT Term columns: %v", header)
	}

	var rows [][3]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		var row [3]string
		row[0] = record[codeIdx]
		row[1] = record[lltIdx]
		if ptIdx >= 0 && ptIdx < len(record) {
			row[2] = record[ptIdx]
		}
		rows = append(rows, row)
	}

	return NewMapping(rows), nil
}

// LLTTerm returns the LLT term for a code, or "" when the code is unmapped.
func (m *Mapping) LLTTerm(code string) string {
	return m.byCode[strings.TrimSpace(code)].lltTerm
}

// PTTerm returns the preferred term an LLT code rolls up to, or "".
func (m *Mapping) PTTerm(code string) string {
	return m.byCode[strings.TrimSpace(code)].ptTerm
}

// PTForTerm returns the preferred term for an LLT term, or "" when the term
// is not in the dictionary. Matching is case-insensitive.
func (m *Mapping) PTForTerm(term string) string {
	return m.byTerm[normalize(term)]
}

// Len returns the number of mapped LLT codes.
func (m *Mapping) Len() int {
	return len(m.byCode)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
