package assess

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/icsr-triage-engine/internal/domain"
)

// ListednessAssessor resolves each reaction event against the reference data
// of the case's suspect drugs. It never returns an error: reference lookups
// that fail or find nothing degrade the affected verdicts to UNASSESSABLE.
type ListednessAssessor struct {
	provider domain.ReferenceProvider
	terms    domain.TermMapper
	logger   *logrus.Logger
}

// NewListednessAssessor wires an assessor to a reference provider and a
// MedDRA term mapper.
func NewListednessAssessor(provider domain.ReferenceProvider, terms domain.TermMapper, logger *logrus.Logger) *ListednessAssessor {
	return &ListednessAssessor{provider: provider, terms: terms, logger: logger}
}

// Assess produces one verdict per reaction event. An event is LISTED when any
// suspect drug's reference entry lists the event term or its PT synonym,
// UNLISTED when at least one entry was found but none lists it, and
// UNASSESSABLE when the event has no usable term or no suspect drug resolves
// to an entry.
func (a *ListednessAssessor) Assess(ctx context.Context, c *domain.CaseRecord) []domain.ListednessVerdict {
	suspects := c.SuspectDrugs()
	entries := a.resolveEntries(ctx, suspects)

	verdicts := make([]domain.ListednessVerdict, 0, len(c.Reactions))
	for _, ev := range c.Reactions {
		verdicts = append(verdicts, a.assessEvent(ev, entries))
	}
	return verdicts
}

type resolvedEntry struct {
	drug  domain.DrugRecord
	entry *domain.ReferenceEntry
}

// resolveEntries looks up every suspect drug once per case. Lookup failures
// are logged and the drug is dropped, leaving the affected events to degrade
// rather than the whole case to fail.
func (a *ListednessAssessor) resolveEntries(ctx context.Context, suspects []domain.DrugRecord) []resolvedEntry {
	var entries []resolvedEntry
	for _, drug := range suspects {
		key := CanonicalDrugName(drug.RawName)
		if key == "" {
			continue
		}
		entry, err := a.provider.Lookup(ctx, key)
		if err != nil {
			if !errors.Is(err, domain.ErrNoEntry) {
				a.logger.WithFields(logrus.Fields{
					"drug":  key,
					"error": err.Error(),
				}).Warn("Reference lookup failed, drug excluded from listedness")
			}
			continue
		}
		entries = append(entries, resolvedEntry{drug: drug, entry: entry})
	}
	return entries
}

// assessEvent applies the any-match-wins reduction across the resolved
// suspect drug entries for a single event.
func (a *ListednessAssessor) assessEvent(ev domain.ReactionEvent, entries []resolvedEntry) domain.ListednessVerdict {
	verdict := domain.ListednessVerdict{EventTerm: ev.Term}
	if ev.Term == "" || len(entries) == 0 {
		verdict.Listedness = domain.UNASSESSABLE
		return verdict
	}

	candidates := a.termCandidates(ev)
	for _, re := range entries {
		for _, term := range candidates {
			if re.entry.HasListedTerm(term) {
				verdict.Listedness = domain.LISTED
				verdict.MatchedDrug = re.entry.DrugName
				verdict.MatchedTerm = term
				return verdict
			}
		}
	}
	verdict.Listedness = domain.UNLISTED
	return verdict
}

// termCandidates expands an event term with its MedDRA PT synonym so that a
// reference list carrying the PT still matches an LLT-coded event.
func (a *ListednessAssessor) termCandidates(ev domain.ReactionEvent) []string {
	candidates := []string{ev.Term}
	if ev.PTTerm != "" && ev.PTTerm != ev.Term {
		candidates = append(candidates, ev.PTTerm)
	}
	if a.terms != nil {
		if pt := a.terms.PTForTerm(ev.Term); pt != "" && pt != ev.Term && pt != ev.PTTerm {
			candidates = append(candidates, pt)
		}
	}
	return candidates
}
