// Package pipeline chains extraction and the three assessment stages into
// the per-document evaluation, and fans batches of documents out over a
// worker pool.
package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/icsr-triage-engine/internal/assess"
	"github.com/icsr-triage-engine/internal/domain"
)

// Pipeline evaluates one ICSR document end to end: extract, validity,
// listedness, reportability, comments. It implements domain.CaseEvaluator
// and is safe for concurrent use.
type Pipeline struct {
	extractor  domain.Extractor
	listedness *assess.ListednessAssessor
	annotator  *assess.Annotator
	logger     *logrus.Logger
}

// New assembles a pipeline from its stages.
func New(extractor domain.Extractor, listedness *assess.ListednessAssessor, annotator *assess.Annotator, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		listedness: listedness,
		annotator:  annotator,
		logger:     logger,
	}
}

// Evaluate runs the full chain for one document. A document that fails to
// parse yields an error-marker record; it never aborts the caller's batch.
// Every stage runs even when the case is invalid, so the output row carries
// the full picture.
func (p *Pipeline) Evaluate(ctx context.Context, source string, data []byte) *domain.CaseOutcomeRecord {
	outcome := &domain.CaseOutcomeRecord{
		Source:      source,
		ProcessedAt: time.Now().UTC(),
	}

	c, err := p.extractor.Extract(source, data)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"source": source,
			"error":  err.Error(),
		}).Error("Document failed extraction")
		outcome.Err = err.Error()
		outcome.ErrCode = domain.ErrCodeParse
		return outcome
	}
	outcome.Case = c

	validity := assess.Validity(c)
	outcome.Validity = &validity

	outcome.Listedness = p.listedness.Assess(ctx, c)

	reportability := assess.Reportability(assess.ReportabilityInput{
		Case:       c,
		Validity:   validity,
		Listedness: outcome.Listedness,
	})
	outcome.Reportability = &reportability

	var rawNames []string
	for _, d := range c.SuspectDrugs() {
		rawNames = append(rawNames, d.RawName)
	}
	outcome.Comments = p.annotator.Annotate(rawNames)

	p.logger.WithFields(logrus.Fields{
		"source":     source,
		"report_id":  c.SafetyReportID,
		"valid":      validity.Valid,
		"reportable": reportability.Reportable,
		"timeframe":  reportability.Timeframe.String(),
	}).Info("Case evaluated")

	return outcome
}
