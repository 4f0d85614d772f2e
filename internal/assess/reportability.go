package assess

import (
	"github.com/icsr-triage-engine/internal/domain"
)

// ReportabilityInput carries the upstream verdicts the decision table
// consumes. Seriousness is derived from the case itself.
type ReportabilityInput struct {
	Case       *domain.CaseRecord
	Validity   domain.ValidityVerdict
	Listedness []domain.ListednessVerdict
}

// Serious reports whether any reaction event carries at least one
// seriousness criterion.
func (in ReportabilityInput) Serious() bool {
	for _, ev := range in.Case.Reactions {
		if ev.Serious() {
			return true
		}
	}
	return false
}

// seriousUnlisted reports whether some reaction event is both serious and
// assessed UNLISTED. Event verdicts are index-aligned with Case.Reactions.
func (in ReportabilityInput) seriousUnlisted() bool {
	for i, v := range in.Listedness {
		if i >= len(in.Case.Reactions) {
			break
		}
		if v.Listedness == domain.UNLISTED && in.Case.Reactions[i].Serious() {
			return true
		}
	}
	return false
}

// reportabilityRule is one row of the decision table. The first rule whose
// predicate holds determines the verdict.
type reportabilityRule struct {
	Applies func(ReportabilityInput) bool
	Verdict func(ReportabilityInput) domain.ReportabilityVerdict
}

var reportabilityRules = []reportabilityRule{
	{
		Applies: func(in ReportabilityInput) bool { return !in.Validity.Valid },
		Verdict: func(in ReportabilityInput) domain.ReportabilityVerdict {
			return domain.ReportabilityVerdict{
				Reportable: false,
				Timeframe:  domain.NO_TIMEFRAME,
				Rationale:  "case is invalid",
			}
		},
	},
	{
		Applies: func(in ReportabilityInput) bool { return in.seriousUnlisted() },
		Verdict: func(in ReportabilityInput) domain.ReportabilityVerdict {
			return domain.ReportabilityVerdict{
				Reportable: true,
				Timeframe:  domain.EXPEDITED_15_DAY,
				Rationale:  "serious and unlisted",
			}
		},
	},
	{
		Applies: func(in ReportabilityInput) bool { return in.Serious() },
		Verdict: func(in ReportabilityInput) domain.ReportabilityVerdict {
			return domain.ReportabilityVerdict{
				Reportable: true,
				Timeframe:  domain.PERIODIC,
				Rationale:  "serious, no serious unlisted event",
			}
		},
	},
	{
		Applies: func(ReportabilityInput) bool { return true },
		Verdict: func(in ReportabilityInput) domain.ReportabilityVerdict {
			return domain.ReportabilityVerdict{
				Reportable: false,
				Timeframe:  domain.NO_TIMEFRAME,
				Rationale:  "non-serious",
			}
		},
	},
}

// Reportability walks the decision table in order and returns the verdict of
// the first matching rule. The table ends with a catch-all, so a verdict is
// always produced.
func Reportability(in ReportabilityInput) domain.ReportabilityVerdict {
	for _, rule := range reportabilityRules {
		if rule.Applies(in) {
			return rule.Verdict(in)
		}
	}
	return domain.ReportabilityVerdict{Timeframe: domain.NO_TIMEFRAME, Rationale: "non-serious"}
}
