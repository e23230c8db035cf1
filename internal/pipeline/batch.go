package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/proposal-writer/internal/types"
)

// DefaultBatchConcurrency bounds concurrent runs in RunBatch.
const DefaultBatchConcurrency = 4

// BatchResult is the outcome of one brief in a batch.
type BatchResult struct {
	Index    int
	JobBrief string
	Proposal types.Proposal
	Err      error
}

// RunBatch runs every brief independently with at most concurrency runs in
// flight. Results are returned in input order; a failed brief does not stop
// the others. The returned error is non-nil only when ctx ends first.
func (p *Pipeline) RunBatch(ctx context.Context, briefs []string, concurrency int, onProgress ProgressCallback) ([]BatchResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(briefs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, brief := range briefs {
		g.Go(func() error {
			proposal, err := p.Run(gCtx, brief, onProgress)
			results[i] = BatchResult{Index: i, JobBrief: brief, Proposal: proposal, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results, ctx.Err()
}
