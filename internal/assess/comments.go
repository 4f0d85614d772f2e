package assess

import (
	"strings"
)

// MoleculeNameDiffer is appended to a case when a suspect product name
// carries a company tag that does not resolve to the configured company.
const MoleculeNameDiffer = "Molecule name differ"

// Annotator flags products whose embedded company tag names a different
// marketing authorization holder. The zero value is unusable; construct with
// NewAnnotator.
type Annotator struct {
	companies map[string]struct{}
}

// NewAnnotator builds an annotator recognizing the given company name and any
// aliases as "ours". Matching is case-insensitive and compares whole names, so
// an alias like "Celix Pharmaceuticals" never vouches for another company that
// happens to share a generic word.
func NewAnnotator(company string, aliases ...string) *Annotator {
	companies := make(map[string]struct{}, len(aliases)+1)
	for _, name := range append([]string{company}, aliases...) {
		if key := strings.Join(substantiveTokens(strings.Fields(name)), " "); key != "" {
			companies[key] = struct{}{}
		}
	}
	return &Annotator{companies: companies}
}

// Annotate inspects each raw product name and returns the deduplicated
// comment list for the case. Names without any tag, and names whose tag is
// only formulation or strength vocabulary, never produce a comment.
func (a *Annotator) Annotate(rawNames []string) []string {
	var comments []string
	seen := make(map[string]struct{})
	for _, raw := range rawNames {
		for _, tag := range extractTags(raw) {
			toks := substantiveTokens(strings.Fields(tag))
			if len(toks) == 0 {
				continue
			}
			if a.matchesCompany(toks) {
				continue
			}
			if _, dup := seen[MoleculeNameDiffer]; dup {
				continue
			}
			seen[MoleculeNameDiffer] = struct{}{}
			comments = append(comments, MoleculeNameDiffer)
		}
	}
	return comments
}

// matchesCompany reports whether the formulation-stripped tag, taken as a
// whole, names the configured company or one of its aliases.
func (a *Annotator) matchesCompany(toks []string) bool {
	_, ok := a.companies[strings.Join(toks, " ")]
	return ok
}

// extractTags pulls every tag segment out of a raw product name. Three
// conventions are recognized: bracketed segments, a trailing segment after a
// double hyphen, and a trailing "by <name>" phrase.
func extractTags(raw string) []string {
	var tags []string
	rest := raw
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], ']')
		if end < 0 {
			tags = append(tags, rest[open+1:])
			break
		}
		tags = append(tags, rest[open+1:open+end])
		rest = rest[open+end+1:]
	}
	if i := strings.Index(raw, "--"); i >= 0 {
		tags = append(tags, raw[i+2:])
	}
	fields := strings.Fields(raw)
	for i, f := range fields {
		if strings.EqualFold(normalizeToken(f), "by") && i > 0 && i < len(fields)-1 {
			tags = append(tags, strings.Join(fields[i+1:], " "))
			break
		}
	}
	return tags
}
