// Package pipeline orchestrates a proposal generation run: context assembly,
// portfolio selection and letter generation, with a last-resort fallback.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/assembly"
	"github.com/jonathan/proposal-writer/internal/letter"
	"github.com/jonathan/proposal-writer/internal/llm"
	"github.com/jonathan/proposal-writer/internal/observability"
	"github.com/jonathan/proposal-writer/internal/pipeline/steps"
	"github.com/jonathan/proposal-writer/internal/selection"
	"github.com/jonathan/proposal-writer/internal/store"
	"github.com/jonathan/proposal-writer/internal/types"
)

// Run outcomes recorded in metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeFallback  = "fallback"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressCallback is called when a stage starts. It must not block.
type ProgressCallback func(event ProgressEvent)

// Options holds the collaborators of a Pipeline.
type Options struct {
	Records store.RecordStore
	Model   llm.Completer
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Pipeline runs generations. It is safe for concurrent use; runs share only
// the model's credential pool.
type Pipeline struct {
	assembler *assembly.Assembler
	selector  *selection.Selector
	letters   *letter.Generator
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	logger := observability.OrNop(opts.Logger)
	return &Pipeline{
		assembler: assembly.New(opts.Records, logger),
		selector:  selection.New(opts.Model, logger, opts.Metrics),
		letters:   letter.New(opts.Model, logger),
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// Run generates a proposal for jobBrief. If the normal run fails for any
// reason other than cancellation, one more letter is attempted with no
// background, rules or portfolio before giving up with *Error.
func (p *Pipeline) Run(ctx context.Context, jobBrief string, onProgress ProgressCallback) (types.Proposal, error) {
	if strings.TrimSpace(jobBrief) == "" {
		return types.Proposal{}, ErrEmptyJobBrief
	}

	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	emit := func(step string) {
		if onProgress == nil {
			return
		}
		def, _ := steps.Get(step)
		onProgress(ProgressEvent{Step: step, Message: def.Status, RunID: runID})
	}

	proposal, err := p.run(ctx, logger, jobBrief, emit)
	if err == nil {
		p.metrics.IncRun(OutcomeSuccess)
		logger.Info("proposal generated", zap.Int("portfolio_used", proposal.PortfolioUsed))
		return proposal, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		p.metrics.IncRun(OutcomeCancelled)
		logger.Info("run abandoned", zap.Error(ctxErr))
		return types.Proposal{}, ctxErr
	}

	logger.Warn("generation failed, attempting last-resort letter", zap.Error(err))
	p.metrics.IncFallback()
	emit(steps.LastResort)

	text, fbErr := p.letters.Generate(ctx, letter.Input{JobBrief: jobBrief})
	if fbErr != nil {
		p.metrics.IncRun(OutcomeFailed)
		logger.Error("last-resort generation failed", zap.Error(fbErr))
		return types.Proposal{}, &Error{Message: UserMessage, Cause: errors.Join(err, fbErr)}
	}

	p.metrics.IncRun(OutcomeFallback)
	return types.Proposal{Text: text, PortfolioUsed: 0}, nil
}

func (p *Pipeline) run(ctx context.Context, logger *zap.Logger, jobBrief string, emit func(string)) (types.Proposal, error) {
	emit(steps.LoadBackground)
	personal := p.optional(ctx, logger, store.KindPersonalContext)

	emit(steps.LoadRules)
	rules := p.optional(ctx, logger, store.KindProposalRules)

	if err := ctx.Err(); err != nil {
		return types.Proposal{}, err
	}
	emit(steps.LoadPortfolio)
	all, err := p.assembler.Portfolio(ctx)
	if err != nil {
		return types.Proposal{}, fmt.Errorf("%s failed: %w", steps.LoadPortfolio, err)
	}

	if err := ctx.Err(); err != nil {
		return types.Proposal{}, err
	}
	emit(steps.SelectPortfolio)
	selected := p.selector.Select(ctx, jobBrief, all)
	logger.Debug("portfolio selected",
		zap.Int("catalog_size", len(all)),
		zap.Strings("titles", selected.Titles()))

	if err := ctx.Err(); err != nil {
		return types.Proposal{}, err
	}
	emit(steps.GenerateLetter)
	text, err := p.letters.Generate(ctx, letter.Input{
		JobBrief:        jobBrief,
		Portfolio:       selected,
		PersonalContext: personal,
		ProposalRules:   rules,
	})
	if err != nil {
		return types.Proposal{}, err
	}

	return types.Proposal{Text: text, PortfolioUsed: len(selected), Portfolio: selected}, nil
}

// optional reads a singleton and reports any failure as absent.
func (p *Pipeline) optional(ctx context.Context, logger *zap.Logger, kind store.SingletonKind) types.Optional[string] {
	value, err := p.assembler.Singleton(ctx, kind)
	if err != nil {
		p.metrics.IncStageDegraded(string(kind))
		logger.Error("optional record unusable, continuing without it",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return types.None[string]()
	}
	return value
}
