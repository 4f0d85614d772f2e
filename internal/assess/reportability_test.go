package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icsr-triage-engine/internal/domain"
)

func TestReportability(t *testing.T) {
	serious := []domain.ReactionEvent{
		{Term: "Myocardial infarction", Seriousness: []domain.SeriousnessCriterion{domain.HOSPITALIZATION}},
	}
	nonSerious := []domain.ReactionEvent{{Term: "Headache"}}

	twoEvents := []domain.ReactionEvent{
		{Term: "Nausea", Seriousness: []domain.SeriousnessCriterion{domain.HOSPITALIZATION}},
		{Term: "Headache"},
	}

	listed := []domain.ListednessVerdict{{EventTerm: "x", Listedness: domain.LISTED}}
	unlisted := []domain.ListednessVerdict{{EventTerm: "x", Listedness: domain.UNLISTED}}
	unassessable := []domain.ListednessVerdict{{EventTerm: "x", Listedness: domain.UNASSESSABLE}}
	listedThenUnlisted := []domain.ListednessVerdict{
		{EventTerm: "Nausea", Listedness: domain.LISTED},
		{EventTerm: "Headache", Listedness: domain.UNLISTED},
	}
	unlistedThenListed := []domain.ListednessVerdict{
		{EventTerm: "Nausea", Listedness: domain.UNLISTED},
		{EventTerm: "Headache", Listedness: domain.LISTED},
	}

	tests := []struct {
		name           string
		valid          bool
		reactions      []domain.ReactionEvent
		listedness     []domain.ListednessVerdict
		wantReportable bool
		wantTimeframe  domain.Timeframe
	}{
		{
			name:           "Invalid case is never reportable",
			valid:          false,
			reactions:      serious,
			listedness:     unlisted,
			wantReportable: false,
			wantTimeframe:  domain.NO_TIMEFRAME,
		},
		{
			name:           "Serious and unlisted is expedited",
			valid:          true,
			reactions:      serious,
			listedness:     unlisted,
			wantReportable: true,
			wantTimeframe:  domain.EXPEDITED_15_DAY,
		},
		{
			name:           "Unlisted serious event among listed ones is expedited",
			valid:          true,
			reactions:      twoEvents,
			listedness:     unlistedThenListed,
			wantReportable: true,
			wantTimeframe:  domain.EXPEDITED_15_DAY,
		},
		{
			name:           "Serious listed event with separate non-serious unlisted event is periodic",
			valid:          true,
			reactions:      twoEvents,
			listedness:     listedThenUnlisted,
			wantReportable: true,
			wantTimeframe:  domain.PERIODIC,
		},
		{
			name:           "Serious and listed is periodic",
			valid:          true,
			reactions:      serious,
			listedness:     listed,
			wantReportable: true,
			wantTimeframe:  domain.PERIODIC,
		},
		{
			name:           "Serious and unassessable is periodic",
			valid:          true,
			reactions:      serious,
			listedness:     unassessable,
			wantReportable: true,
			wantTimeframe:  domain.PERIODIC,
		},
		{
			name:           "Non-serious is not reportable regardless of listedness",
			valid:          true,
			reactions:      nonSerious,
			listedness:     unlisted,
			wantReportable: false,
			wantTimeframe:  domain.NO_TIMEFRAME,
		},
		{
			name:           "Serious with no listedness verdicts is periodic",
			valid:          true,
			reactions:      serious,
			listedness:     nil,
			wantReportable: true,
			wantTimeframe:  domain.PERIODIC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ReportabilityInput{
				Case:       &domain.CaseRecord{Reactions: tt.reactions},
				Validity:   domain.ValidityVerdict{Valid: tt.valid},
				Listedness: tt.listedness,
			}

			verdict := Reportability(in)

			assert.Equal(t, tt.wantReportable, verdict.Reportable)
			assert.Equal(t, tt.wantTimeframe, verdict.Timeframe)
			assert.NotEmpty(t, verdict.Rationale)
		})
	}
}
