// Package export renders batches of case outcomes as the triage output
// table, either CSV for spreadsheet review or JSON for downstream systems.
package export

import (
	"strconv"
	"strings"

	"github.com/icsr-triage-engine/internal/domain"
)

// narrativeDisplayWords caps the narrative cell; the full text stays on the
// case record for JSON consumers.
const narrativeDisplayWords = 10

// Columns is the header of the triage output table, in display order.
var Columns = []string{
	"SL No",
	"Date",
	"Sender ID",
	"Transmission Date",
	"Reporter Qualification",
	"Patient Detail",
	"Product Detail",
	"Event Details",
	"Narrative",
	"Validity",
	"Listedness",
	"App Assessment",
	"Comments",
	"Error",
}

// Row renders one outcome as the table row for position idx (1-based).
// Error-marker records fill only the identity and error cells.
func Row(idx int, o *domain.CaseOutcomeRecord) []string {
	if o.Failed() {
		return []string{
			strconv.Itoa(idx), dateCell(o), "", "", "", "", "", "", "", "", "", "", "",
			o.Source + ": " + o.Err,
		}
	}

	c := o.Case
	return []string{
		strconv.Itoa(idx),
		dateCell(o),
		c.SenderID,
		c.TransmissionDate,
		c.Reporter.Qualification,
		c.Patient.Detail(),
		productDetail(c.Drugs),
		eventDetails(c.Reactions),
		narrativeDisplay(c.Narrative),
		validityCell(o.Validity),
		listednessCell(o.Listedness),
		assessmentCell(o.Reportability),
		strings.Join(o.Comments, "; "),
		"",
	}
}

// dateCell renders the processing date of the outcome.
func dateCell(o *domain.CaseOutcomeRecord) string {
	if o.ProcessedAt.IsZero() {
		return ""
	}
	return o.ProcessedAt.Format("02-Jan-2006")
}

// narrativeDisplay truncates long narratives for the table cell.
func narrativeDisplay(narrative string) string {
	words := strings.Fields(narrative)
	if len(words) <= narrativeDisplayWords {
		return narrative
	}
	return strings.Join(words[:narrativeDisplayWords], " ") + "..."
}

// productDetail renders the drug blocks as one display cell, suspects first
// in document order.
func productDetail(drugs []domain.DrugRecord) string {
	lines := make([]string, 0, len(drugs))
	for _, d := range drugs {
		parts := []string{d.RawName + " (" + d.Role.String() + ")"}
		if d.Dose != "" {
			parts = append(parts, "Dose: "+d.Dose)
		}
		if d.Formulation != "" {
			parts = append(parts, "Form: "+d.Formulation)
		}
		if d.StartDate != "" {
			parts = append(parts, "Start: "+d.StartDate)
		}
		if d.StopDate != "" {
			parts = append(parts, "Stop: "+d.StopDate)
		}
		lines = append(lines, strings.Join(parts, ", "))
	}
	return strings.Join(lines, " | ")
}

// eventDetails renders the reaction blocks as one display cell.
func eventDetails(events []domain.ReactionEvent) string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		parts := []string{ev.Term}
		if len(ev.Seriousness) > 0 {
			names := make([]string, 0, len(ev.Seriousness))
			for _, s := range ev.Seriousness {
				names = append(names, s.DisplayName())
			}
			parts = append(parts, "Serious: "+strings.Join(names, ", "))
		}
		if ev.Outcome != "" {
			parts = append(parts, "Outcome: "+ev.Outcome)
		}
		lines = append(lines, strings.Join(parts, "; "))
	}
	return strings.Join(lines, " | ")
}

func validityCell(v *domain.ValidityVerdict) string {
	if v == nil {
		return ""
	}
	if v.Valid {
		return "Valid"
	}
	missing := make([]string, 0, len(v.MissingCriteria))
	for _, m := range v.MissingCriteria {
		missing = append(missing, m.DisplayName())
	}
	return "Invalid (missing: " + strings.Join(missing, ", ") + ")"
}

// listednessCell summarizes the per-event verdicts in event order.
func listednessCell(verdicts []domain.ListednessVerdict) string {
	cells := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		cell := v.EventTerm + ": " + v.Listedness.String()
		if v.MatchedDrug != "" {
			cell += " (" + v.MatchedDrug + ")"
		}
		cells = append(cells, cell)
	}
	return strings.Join(cells, " | ")
}

func assessmentCell(r *domain.ReportabilityVerdict) string {
	if r == nil {
		return ""
	}
	if !r.Reportable {
		return "Not reportable: " + r.Rationale
	}
	return r.Timeframe.String() + ": " + r.Rationale
}
