// Package extract parses E2B(R3)-style HL7 v3 ICSR documents into canonical
// case records. Parsing is tolerant: missing optional elements become absent
// fields, unknown elements are ignored, and only structurally malformed XML
// (or a document outside the HL7 namespace) fails with a ParseError.
package extract

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/icsr-triage-engine/internal/domain"
)

// Extractor turns raw XML into domain.CaseRecord values. The term mapper
// resolves the coded MedDRA reaction terms; it may be a no-op mapping when no
// dictionary is configured.
type Extractor struct {
	logger *logrus.Logger
	terms  domain.TermMapper
}

// New creates an extractor backed by the given MedDRA term mapper.
func New(logger *logrus.Logger, terms domain.TermMapper) *Extractor {
	return &Extractor{logger: logger, terms: terms}
}

// Extract parses one ICSR document. source identifies the document in errors
// and logs (file name or upload identifier). The returned record is complete
// and never mutated afterwards.
func (x *Extractor) Extract(source string, data []byte) (*domain.CaseRecord, error) {
	root, err := parseTree(data)
	if err != nil {
		line := 0
		if syn, ok := err.(*xml.SyntaxError); ok {
			line = syn.Line
		}
		return nil, domain.NewParseError(source, "", line, err)
	}

	if root.XMLName.Space != hl7Namespace {
		return nil, domain.NewParseError(source, root.XMLName.Local, 0,
			fmt.Errorf("unexpected root element namespace %q, want %q", root.XMLName.Space, hl7Namespace))
	}

	rec := &domain.CaseRecord{
		SafetyReportID:   x.safetyReportID(root),
		TransmissionDate: normalizeDate(attrOf(root.findNamed("creationTime"), "value")),
		ReceiptDate:      x.receiptDate(root),
		Patient:          x.patient(root),
		Reporter:         x.reporter(root),
		Drugs:            x.drugs(root),
		Reactions:        x.reactions(root),
		Narrative:        x.narrative(root),
	}
	if rec.ReceiptDate == "" {
		rec.ReceiptDate = rec.TransmissionDate
	}
	rec.SenderID = rec.SafetyReportID

	x.logger.WithFields(logrus.Fields{
		"source":    source,
		"report_id": rec.SafetyReportID,
		"reactions": len(rec.Reactions),
		"drugs":     len(rec.Drugs),
	}).Debug("Extracted case record")

	return rec, nil
}

// safetyReportID finds the id element carrying the sender's safety report
// unique identifier OID.
func (x *Extractor) safetyReportID(root *node) string {
	id := root.find(func(e *node) bool {
		return e.XMLName.Local == "id" && e.attr("root") == safetyReportOID
	})
	return attrOf(id, "extension")
}

// receiptDate reads the date the report was first received from the source,
// carried as the low bound of the investigation event's effectiveTime.
func (x *Extractor) receiptDate(root *node) string {
	ie := root.findNamed("investigationEvent")
	if ie == nil {
		return ""
	}
	et := ie.child("effectiveTime")
	if et == nil {
		return ""
	}
	if low := et.findNamed("low"); low != nil {
		return normalizeDate(low.attr("value"))
	}
	return normalizeDate(et.attr("value"))
}

func (x *Extractor) reporter(root *node) domain.Reporter {
	var qualification string
	if qe := root.findNamed("asQualifiedEntity"); qe != nil {
		if code := qe.findNamed("code"); code != nil {
			qualification = mapReporter(code.attr("code"))
		}
	}
	return domain.Reporter{Qualification: qualification}
}

func (x *Extractor) patient(root *node) domain.Patient {
	p := domain.Patient{
		Sex:    mapGender(attrOf(root.findNamed("administrativeGenderCode"), "code")),
		Age:    quantityObservation(root, "age"),
		Weight: quantityObservation(root, "bodyWeight"),
		Height: quantityObservation(root, "height"),
	}
	return p
}

// quantityObservation reads the value+unit pair of the observation whose code
// carries the given displayName (the age/bodyWeight/height pattern).
func quantityObservation(root *node, displayName string) string {
	v := root.valueSibling("displayName", displayName)
	if v == nil {
		return ""
	}
	val := strings.TrimSpace(v.attr("value"))
	unit := strings.TrimSpace(v.attr("unit"))
	if val == "" {
		return ""
	}
	if unit == "" {
		return val
	}
	return val + " " + unit
}

// suspectIDs collects the product-use identifiers flagged suspect by the
// causality assessment blocks (assessment value code 1).
func (x *Extractor) suspectIDs(root *node) map[string]bool {
	suspects := make(map[string]bool)
	for _, ca := range root.findAllNamed("causalityAssessment") {
		val := ca.findNamed("value")
		if val == nil || val.attr("code") != "1" {
			continue
		}
		subj := ca.findNamed("subject2")
		if subj == nil {
			continue
		}
		ref := subj.findNamed("productUseReference")
		if ref == nil {
			continue
		}
		if id := ref.findNamed("id"); id != nil && id.attr("root") != "" {
			suspects[id.attr("root")] = true
		}
	}
	return suspects
}

func (x *Extractor) drugs(root *node) []domain.DrugRecord {
	suspects := x.suspectIDs(root)

	var drugs []domain.DrugRecord
	for _, sa := range root.findAllNamed("substanceAdministration") {
		name := ""
		if kp := sa.findNamed("kindOfProduct"); kp != nil {
			if n := kp.findNamed("name"); n != nil {
				name = strings.TrimSpace(n.Text)
			}
		}
		if name == "" {
			continue
		}

		d := domain.DrugRecord{
			RawName: name,
			Role:    domain.CONCOMITANT,
		}
		if id := sa.findNamed("id"); id != nil && suspects[id.attr("root")] {
			d.Role = domain.SUSPECT
		}
		if txt := sa.child("text"); txt != nil {
			d.DosageText = collapseWhitespace(txt.Text)
		}
		if dq := sa.findNamed("doseQuantity"); dq != nil {
			d.Dose = strings.TrimSpace(strings.TrimSpace(dq.attr("value")) + " " + strings.TrimSpace(dq.attr("unit")))
		}
		if fc := sa.findNamed("formCode"); fc != nil {
			if ot := fc.findNamed("originalText"); ot != nil {
				d.Formulation = collapseWhitespace(ot.Text)
			}
		}
		if lot := sa.findNamed("lotNumberText"); lot != nil {
			d.LotNumber = collapseWhitespace(lot.Text)
		}
		d.StartDate = normalizeDate(attrOf(sa.findNamed("low"), "value"))
		d.StopDate = normalizeDate(attrOf(sa.findNamed("high"), "value"))

		drugs = append(drugs, d)
	}
	return drugs
}

func (x *Extractor) reactions(root *node) []domain.ReactionEvent {
	var events []domain.ReactionEvent
	for _, obs := range root.findAllNamed("observation") {
		code := obs.child("code")
		if code == nil || code.attr("displayName") != "reaction" {
			continue
		}

		ev := domain.ReactionEvent{}
		if v := obs.child("value"); v != nil {
			ev.LLTCode = strings.TrimSpace(v.attr("code"))
		}
		if ev.LLTCode != "" {
			if term := x.terms.LLTTerm(ev.LLTCode); term != "" {
				ev.Term = term
				ev.PTTerm = x.terms.PTTerm(ev.LLTCode)
			} else {
				// Unmapped code: keep the raw code as the term so the
				// event still counts as reported for validity.
				ev.Term = ev.LLTCode
			}
		}

		for _, display := range seriousnessOrder {
			v := obs.valueSibling("displayName", display)
			if v != nil && strings.EqualFold(v.attr("value"), "true") {
				ev.Seriousness = append(ev.Seriousness, seriousnessFlags[display])
			}
		}

		if v := obs.valueSibling("displayName", "outcome"); v != nil {
			ev.Outcome = mapOutcome(v.attr("code"))
		}

		events = append(events, ev)
	}
	return events
}

func (x *Extractor) narrative(root *node) string {
	var narrative string
	root.walk(func(e *node) bool {
		code := e.child("code")
		if code == nil || code.attr("code") != narrativeCode {
			return true
		}
		if txt := e.child("text"); txt != nil {
			narrative = collapseWhitespace(txt.Text)
			return false
		}
		return true
	})
	return narrative
}

// normalizeDate converts an HL7 TS timestamp (yyyyMMdd with optional time
// suffix) into the dd-MMM-yyyy display form. Partial dates degrade to the
// precision transmitted; unparsable input is returned trimmed but unchanged.
func normalizeDate(ts string) string {
	ts = strings.TrimSpace(ts)
	switch {
	case len(ts) >= 8:
		if t, err := time.Parse("20060102", ts[:8]); err == nil {
			return t.Format("02-Jan-2006")
		}
	case len(ts) == 6:
		if t, err := time.Parse("200601", ts); err == nil {
			return t.Format("Jan-2006")
		}
	case len(ts) == 4:
		if t, err := time.Parse("2006", ts); err == nil {
			return t.Format("2006")
		}
	}
	return ts
}

// collapseWhitespace trims and folds internal whitespace runs to single
// spaces, normalizing free-text blocks.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attrOf(n *node, name string) string {
	if n == nil {
		return ""
	}
	return n.attr(name)
}
