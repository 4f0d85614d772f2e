package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/icsr-triage-engine/internal/domain"
)

// WriteCSV writes the full output table, header included.
func WriteCSV(w io.Writer, outcomes []*domain.CaseOutcomeRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, o := range outcomes {
		if err := cw.Write(Row(i+1, o)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the outcomes as an indented JSON array, preserving the
// full structured verdicts rather than the flattened display cells.
func WriteJSON(w io.Writer, outcomes []*domain.CaseOutcomeRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcomes)
}
