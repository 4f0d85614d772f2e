// Package assess implements the three chained ICSR decision procedures —
// validity, listedness and reportability — and the comment annotation layer.
// Each assessor is a total, side-effect-free function of the case record and
// the read-only reference data: no combination of absent or empty fields
// produces an error, only a verdict.
package assess

import (
	"github.com/icsr-triage-engine/internal/domain"
)

// validityCheck is one of the four minimum reportable-case criteria expressed
// as a predicate over the case record.
type validityCheck struct {
	Criterion domain.ValidityCriterion
	Met       func(*domain.CaseRecord) bool
}

// validityChecks is the declarative criterion table. Order only affects the
// order of the missing-criteria list, not the verdict.
var validityChecks = []validityCheck{
	{
		Criterion: domain.IDENTIFIABLE_PATIENT,
		Met: func(c *domain.CaseRecord) bool {
			return c.Patient.Identifiable()
		},
	},
	{
		Criterion: domain.IDENTIFIABLE_REPORTER,
		Met: func(c *domain.CaseRecord) bool {
			return c.Reporter.Identifiable()
		},
	},
	{
		Criterion: domain.SUSPECT_DRUG,
		Met: func(c *domain.CaseRecord) bool {
			return len(c.SuspectDrugs()) > 0
		},
	},
	{
		Criterion: domain.REACTION_TERM,
		Met: func(c *domain.CaseRecord) bool {
			for _, ev := range c.Reactions {
				if ev.Term != "" {
					return true
				}
			}
			return false
		},
	},
}

// Validity evaluates the four minimum criteria. All four checks always run so
// the verdict reports every missing criterion in one pass; there is no
// short-circuit on the first failure.
func Validity(c *domain.CaseRecord) domain.ValidityVerdict {
	var missing []domain.ValidityCriterion
	for _, check := range validityChecks {
		if !check.Met(c) {
			missing = append(missing, check.Criterion)
		}
	}
	return domain.ValidityVerdict{
		Valid:           len(missing) == 0,
		MissingCriteria: missing,
	}
}
