package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/icsr-triage-engine/internal/domain"
)

// Input is one document queued for batch evaluation.
type Input struct {
	Source string
	Data   []byte
}

// BatchRunner evaluates documents concurrently over a fixed worker pool.
// Output order matches input order regardless of completion order.
type BatchRunner struct {
	evaluator domain.CaseEvaluator
	workers   int
	logger    *logrus.Logger
}

// NewBatchRunner creates a runner with the given pool size. Sizes below one
// fall back to a single worker.
func NewBatchRunner(evaluator domain.CaseEvaluator, workers int, logger *logrus.Logger) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{evaluator: evaluator, workers: workers, logger: logger}
}

// Run evaluates every input and returns one outcome per input, in input
// order. Cancelling the context stops further evaluations; documents not yet
// started become error-marker records carrying the context error.
func (b *BatchRunner) Run(ctx context.Context, inputs []Input) []*domain.CaseOutcomeRecord {
	outcomes := make([]*domain.CaseOutcomeRecord, len(inputs))
	jobs := make(chan int, len(inputs))

	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					outcomes[i] = &domain.CaseOutcomeRecord{
						Source:      inputs[i].Source,
						Err:         ctx.Err().Error(),
						ErrCode:     domain.ErrCodeInternalServer,
						ProcessedAt: time.Now().UTC(),
					}
					continue
				default:
				}
				outcomes[i] = b.evaluator.Evaluate(ctx, inputs[i].Source, inputs[i].Data)
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	b.logger.WithFields(logrus.Fields{
		"documents": len(inputs),
		"workers":   b.workers,
	}).Info("Batch evaluation finished")

	return outcomes
}
