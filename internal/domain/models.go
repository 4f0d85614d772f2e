// Package domain contains the core business entities for ICSR (Individual Case
// Safety Report) triage: the canonical case record extracted from E2B(R3) XML,
// the reference safety information entry, and the verdicts produced by the
// validity, listedness and reportability assessments.
//
// Reference: ICH E2B(R3) Implementation Guide for Electronic Transmission of
// Individual Case Safety Reports.
package domain

import (
	"strings"
	"time"
)

// DrugRole represents the reported characterization of a drug within a case.
// E2B(R3) drug characterization codes: 1 = suspect, 2 = concomitant, 3 = interacting.
type DrugRole string

const (
	SUSPECT      DrugRole = "SUSPECT"
	CONCOMITANT  DrugRole = "CONCOMITANT"
	INTERACTING  DrugRole = "INTERACTING"
	ROLE_UNKNOWN DrugRole = "UNKNOWN"
)

// SeriousnessCriterion represents one of the six regulatory seriousness flags
// attached to a reaction event.
type SeriousnessCriterion string

const (
	DEATH               SeriousnessCriterion = "DEATH"
	LIFE_THREATENING    SeriousnessCriterion = "LIFE_THREATENING"
	HOSPITALIZATION     SeriousnessCriterion = "HOSPITALIZATION"
	DISABILITY          SeriousnessCriterion = "DISABILITY"
	CONGENITAL_ANOMALY  SeriousnessCriterion = "CONGENITAL_ANOMALY"
	MEDICALLY_IMPORTANT SeriousnessCriterion = "MEDICALLY_IMPORTANT"
)

// AllSeriousnessCriteria lists every criterion in display order.
var AllSeriousnessCriteria = []SeriousnessCriterion{
	DEATH,
	LIFE_THREATENING,
	HOSPITALIZATION,
	DISABILITY,
	CONGENITAL_ANOMALY,
	MEDICALLY_IMPORTANT,
}

// Listedness represents the per-event listedness verdict.
type Listedness string

const (
	LISTED       Listedness = "LISTED"
	UNLISTED     Listedness = "UNLISTED"
	UNASSESSABLE Listedness = "UNASSESSABLE"
)

// Timeframe represents the regulatory submission timeframe class.
type Timeframe string

const (
	EXPEDITED_15_DAY Timeframe = "EXPEDITED_15_DAY"
	PERIODIC         Timeframe = "PERIODIC"
	NO_TIMEFRAME     Timeframe = "NONE"
)

// ValidityCriterion names one of the four minimum reportable-case criteria.
type ValidityCriterion string

const (
	IDENTIFIABLE_PATIENT  ValidityCriterion = "IDENTIFIABLE_PATIENT"
	IDENTIFIABLE_REPORTER ValidityCriterion = "IDENTIFIABLE_REPORTER"
	SUSPECT_DRUG          ValidityCriterion = "SUSPECT_DRUG"
	REACTION_TERM         ValidityCriterion = "REACTION_TERM"
)

// Patient holds the demographic details extracted for the case. A patient is
// considered identifiable when at least one demographic field is populated.
type Patient struct {
	Sex    string `json:"sex,omitempty"`
	Age    string `json:"age,omitempty"`
	Weight string `json:"weight,omitempty"`
	Height string `json:"height,omitempty"`
}

// Identifiable reports whether the patient block carries minimal identifying
// information. This feeds the validity assessment.
func (p Patient) Identifiable() bool {
	return p.Sex != "" || p.Age != "" || p.Weight != "" || p.Height != ""
}

// Detail renders the combined patient-detail display string used by the
// output table.
func (p Patient) Detail() string {
	parts := make([]string, 0, 4)
	if p.Sex != "" {
		parts = append(parts, "Gender: "+p.Sex)
	}
	if p.Age != "" {
		parts = append(parts, "Age: "+p.Age)
	}
	if p.Height != "" {
		parts = append(parts, "Height: "+p.Height)
	}
	if p.Weight != "" {
		parts = append(parts, "Weight: "+p.Weight)
	}
	return strings.Join(parts, ", ")
}

// Reporter holds the primary-source reporter details.
type Reporter struct {
	Qualification string `json:"qualification,omitempty"`
}

// Identifiable reports whether the reporter block carries minimal identifying
// information.
func (r Reporter) Identifiable() bool {
	return r.Qualification != ""
}

// ReactionEvent represents a single adverse reaction block of a case. Term is
// the resolved MedDRA LLT term (or the raw code when no mapping exists),
// PTTerm the preferred term the LLT rolls up to.
type ReactionEvent struct {
	LLTCode     string                 `json:"llt_code,omitempty"`
	Term        string                 `json:"term,omitempty"`
	PTTerm      string                 `json:"pt_term,omitempty"`
	Seriousness []SeriousnessCriterion `json:"seriousness,omitempty"`
	Outcome     string                 `json:"outcome,omitempty"`
}

// Serious reports whether any seriousness criterion is flagged on the event.
func (e ReactionEvent) Serious() bool {
	return len(e.Seriousness) > 0
}

// DrugRecord represents a single drug block of a case. RawName preserves the
// drug-name string exactly as transmitted; the comment annotator depends on
// the verbatim text.
type DrugRecord struct {
	RawName     string   `json:"raw_name"`
	Role        DrugRole `json:"role"`
	Dose        string   `json:"dose,omitempty"`
	DosageText  string   `json:"dosage_text,omitempty"`
	Formulation string   `json:"formulation,omitempty"`
	LotNumber   string   `json:"lot_number,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	StopDate    string   `json:"stop_date,omitempty"`
}

// CaseRecord is the canonical, immutable representation of one ICSR extracted
// from a single XML document. The extractor produces it whole; no stage
// mutates it afterwards.
type CaseRecord struct {
	SafetyReportID   string          `json:"safety_report_id"`
	SenderID         string          `json:"sender_id,omitempty"`
	ReceiptDate      string          `json:"receipt_date,omitempty"`
	TransmissionDate string          `json:"transmission_date,omitempty"`
	Patient          Patient         `json:"patient"`
	Reporter         Reporter        `json:"reporter"`
	Reactions        []ReactionEvent `json:"reactions,omitempty"`
	Drugs            []DrugRecord    `json:"drugs,omitempty"`
	Narrative        string          `json:"narrative,omitempty"`
}

// SuspectDrugs returns the drugs reported with a suspect role, preserving
// document order.
func (c *CaseRecord) SuspectDrugs() []DrugRecord {
	var suspects []DrugRecord
	for _, d := range c.Drugs {
		if d.Role == SUSPECT {
			suspects = append(suspects, d)
		}
	}
	return suspects
}

// ReferenceEntry maps one canonical drug identity to its reference safety
// information: the set of listed event terms and the canonical
// manufacturer/company name used by the comment annotator. Entries are loaded
// once per run and shared read-only across all case evaluations.
type ReferenceEntry struct {
	DrugName    string   `json:"drug_name"`
	Company     string   `json:"company"`
	ListedTerms []string `json:"listed_terms"`
}

// HasListedTerm reports whether term matches one of the listed event terms,
// case-insensitively.
func (r *ReferenceEntry) HasListedTerm(term string) bool {
	if term == "" {
		return false
	}
	for _, listed := range r.ListedTerms {
		if strings.EqualFold(strings.TrimSpace(listed), strings.TrimSpace(term)) {
			return true
		}
	}
	return false
}

// ValidityVerdict reports whether the case meets the four minimum
// reportable-case criteria, listing exactly which criteria are missing.
// An empty MissingCriteria set means the case is valid.
type ValidityVerdict struct {
	Valid           bool                `json:"valid"`
	MissingCriteria []ValidityCriterion `json:"missing_criteria,omitempty"`
}

// ListednessVerdict is the per-event listedness result. MatchedDrug and
// MatchedTerm are populated only when the event is listed.
type ListednessVerdict struct {
	EventTerm   string     `json:"event_term"`
	Listedness  Listedness `json:"listedness"`
	MatchedDrug string     `json:"matched_drug,omitempty"`
	MatchedTerm string     `json:"matched_term,omitempty"`
}

// ReportabilityVerdict is the case-level expedited-reporting decision.
type ReportabilityVerdict struct {
	Reportable bool      `json:"reportable"`
	Timeframe  Timeframe `json:"timeframe"`
	Rationale  string    `json:"rationale"`
}

// CaseOutcomeRecord is the final immutable aggregate written to the output
// table, one per input document. Err is set instead of the verdicts when the
// document could not be parsed; the row still appears in the table.
type CaseOutcomeRecord struct {
	Source        string                `json:"source,omitempty"`
	Case          *CaseRecord           `json:"case,omitempty"`
	Validity      *ValidityVerdict      `json:"validity,omitempty"`
	Listedness    []ListednessVerdict   `json:"listedness,omitempty"`
	Reportability *ReportabilityVerdict `json:"reportability,omitempty"`
	Comments      []string              `json:"comments,omitempty"`
	Err           string                `json:"error,omitempty"`
	ErrCode       string                `json:"error_code,omitempty"`
	ProcessedAt   time.Time             `json:"processed_at"`
}

// Failed reports whether the record is an error marker rather than a full
// outcome.
func (o *CaseOutcomeRecord) Failed() bool {
	return o.Err != ""
}
