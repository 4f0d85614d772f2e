package domain

// String returns the string representation of the DrugRole.
func (r DrugRole) String() string {
	return string(r)
}

// String returns the string representation of the Listedness verdict.
func (l Listedness) String() string {
	return string(l)
}

// String returns the string representation of the Timeframe class.
func (t Timeframe) String() string {
	return string(t)
}

// String returns the string representation of the SeriousnessCriterion.
func (s SeriousnessCriterion) String() string {
	return string(s)
}

// DisplayName returns the human-readable label used in the event-details
// column of the output table.
func (s SeriousnessCriterion) DisplayName() string {
	switch s {
	case DEATH:
		return "Death"
	case LIFE_THREATENING:
		return "Life Threatening"
	case HOSPITALIZATION:
		return "Hospitalization"
	case DISABILITY:
		return "Disability"
	case CONGENITAL_ANOMALY:
		return "Congenital Anomaly"
	case MEDICALLY_IMPORTANT:
		return "Other Medically Important Condition"
	default:
		return string(s)
	}
}

// String returns the string representation of the ValidityCriterion.
func (v ValidityCriterion) String() string {
	return string(v)
}

// DisplayName returns the human-readable label for the missing-criteria
// column of the output table.
func (v ValidityCriterion) DisplayName() string {
	switch v {
	case IDENTIFIABLE_PATIENT:
		return "Identifiable patient"
	case IDENTIFIABLE_REPORTER:
		return "Identifiable reporter"
	case SUSPECT_DRUG:
		return "Suspect drug"
	case REACTION_TERM:
		return "Reaction term"
	default:
		return string(v)
	}
}
