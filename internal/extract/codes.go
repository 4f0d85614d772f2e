package extract

import "github.com/icsr-triage-engine/internal/domain"

// E2B(R3) / HL7 v3 vocabulary used by the extractor.
const (
	// hl7Namespace is the namespace every ICSR element must live in.
	hl7Namespace = "urn:hl7-org:v3"

	// safetyReportOID identifies the sender's case safety report unique
	// identifier (ICH ICSR OID registry).
	safetyReportOID = "2.16.840.1.113883.3.989.2.1.3.1"

	// narrativeCode marks the case narrative block.
	narrativeCode = "PAT_ADV_EVNT"
)

// reporterQualifications maps the E2B(R3) reporter qualification codes.
var reporterQualifications = map[string]string{
	"1": "Physician",
	"2": "Pharmacist",
	"3": "Other Health Professional",
	"4": "Lawyer",
	"5": "Consumer or Other Non Health Professional",
}

// genders maps the HL7 administrative gender codes used by E2B(R3).
var genders = map[string]string{
	"0": "Unknown",
	"1": "Male",
	"2": "Female",
}

// outcomes maps the E2B(R3) reaction outcome codes.
var outcomes = map[string]string{
	"0": "Unknown",
	"1": "Recovered/Resolved",
	"2": "Recovering/Resolving",
	"3": "Not Recovered/Not Resolved",
	"4": "Recovered/Resolved With Sequelae",
	"5": "Fatal",
}

// seriousnessFlags maps the observation displayName of each seriousness flag
// to the domain criterion.
var seriousnessFlags = map[string]domain.SeriousnessCriterion{
	"resultsInDeath":                   domain.DEATH,
	"isLifeThreatening":                domain.LIFE_THREATENING,
	"requiresInpatientHospitalization": domain.HOSPITALIZATION,
	"resultsInPersistentOrSignificantDisability": domain.DISABILITY,
	"congenitalAnomalyBirthDefect":               domain.CONGENITAL_ANOMALY,
	"otherMedicallyImportantCondition":           domain.MEDICALLY_IMPORTANT,
}

// seriousnessOrder keeps the emitted criteria in the display order of the
// output table regardless of document order.
var seriousnessOrder = []string{
	"resultsInDeath",
	"isLifeThreatening",
	"requiresInpatientHospitalization",
	"resultsInPersistentOrSignificantDisability",
	"congenitalAnomalyBirthDefect",
	"otherMedicallyImportantCondition",
}

func mapReporter(code string) string {
	return reporterQualifications[code]
}

func mapGender(code string) string {
	return genders[code]
}

func mapOutcome(code string) string {
	return outcomes[code]
}
