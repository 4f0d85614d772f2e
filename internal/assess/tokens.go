package assess

import (
	"strings"
	"unicode"
)

// formulationWords are dosage-form and strength vocabulary that may appear
// inside a product name tag without identifying a company. Tokens matching
// this set are discarded before any company comparison.
var formulationWords = map[string]struct{}{
	"tablet": {}, "tablets": {}, "tab": {}, "tabs": {},
	"capsule": {}, "capsules": {}, "cap": {}, "caps": {},
	"injection": {}, "injectable": {}, "infusion": {},
	"solution": {}, "suspension": {}, "syrup": {}, "elixir": {},
	"cream": {}, "ointment": {}, "gel": {}, "lotion": {},
	"patch": {}, "spray": {}, "drops": {}, "inhaler": {},
	"powder": {}, "granules": {}, "film": {}, "coated": {},
	"oral": {}, "topical": {}, "ophthalmic": {}, "nasal": {},
	"extended": {}, "release": {}, "delayed": {}, "sustained": {},
	"er": {}, "sr": {}, "xr": {}, "xl": {}, "cr": {}, "la": {},
	"depot": {}, "kit": {}, "vial": {}, "ampoule": {}, "sachet": {},
	"mg": {}, "mcg": {}, "ug": {}, "g": {}, "kg": {},
	"ml": {}, "l": {}, "iu": {}, "meq": {}, "mmol": {},
	"percent": {}, "w/v": {}, "w/w": {}, "v/v": {},
}

// normalizeToken lowercases a single token and strips surrounding
// punctuation, keeping interior characters intact.
func normalizeToken(tok string) string {
	tok = strings.TrimFunc(tok, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.ToLower(tok)
}

// isStrengthToken reports whether a token is purely numeric or a fused
// number-unit pair such as "5mg" or "0.25ml".
func isStrengthToken(tok string) bool {
	if tok == "" {
		return false
	}
	var unit strings.Builder
	digits := false
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r) || r == '.' || r == ',' || r == '/':
			if unit.Len() > 0 {
				return false
			}
			if unicode.IsDigit(r) {
				digits = true
			}
		case unicode.IsLetter(r) || r == '%':
			unit.WriteRune(r)
		default:
			return false
		}
	}
	if !digits {
		return false
	}
	if unit.Len() == 0 {
		return true
	}
	_, ok := formulationWords[strings.ToLower(unit.String())]
	return ok || unit.String() == "%"
}

// substantiveTokens normalizes a token list and drops formulation vocabulary
// and strength tokens, returning only tokens that could name a company or a
// molecule.
func substantiveTokens(toks []string) []string {
	var out []string
	for _, tok := range toks {
		norm := normalizeToken(tok)
		if norm == "" || isStrengthToken(norm) {
			continue
		}
		if _, deny := formulationWords[norm]; deny {
			continue
		}
		out = append(out, norm)
	}
	return out
}

// CanonicalDrugName reduces a verbatim product name to the molecule identity
// used as the reference-data key: tags, the "by <company>" suffix, dosage
// forms and strength tokens are removed and the remainder is lowercased.
func CanonicalDrugName(raw string) string {
	name := raw
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, "--"); i >= 0 {
		name = name[:i]
	}
	fields := strings.Fields(name)
	for i, f := range fields {
		if strings.EqualFold(f, "by") && i > 0 {
			fields = fields[:i]
			break
		}
	}
	keep := substantiveTokens(fields)
	return strings.Join(keep, " ")
}
