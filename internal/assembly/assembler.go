// Package assembly gathers the freelancer data a proposal is written from.
package assembly

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/observability"
	"github.com/jonathan/proposal-writer/internal/store"
	"github.com/jonathan/proposal-writer/internal/types"
)

// Context is the assembled input for one generation run.
type Context struct {
	PersonalContext types.Optional[string]
	ProposalRules   types.Optional[string]
	Portfolio       types.Portfolio
}

// Assembler reads the record store.
type Assembler struct {
	store  store.RecordStore
	logger *zap.Logger
}

// New creates an Assembler over rs.
func New(rs store.RecordStore, logger *zap.Logger) *Assembler {
	return &Assembler{store: rs, logger: observability.OrNop(logger)}
}

// Assemble performs the three reads. Singleton read failures are treated as
// absent unless the stored data is structurally broken; a failed catalog read
// is returned.
func (a *Assembler) Assemble(ctx context.Context) (*Context, error) {
	personal, err := a.Singleton(ctx, store.KindPersonalContext)
	if err != nil {
		return nil, err
	}

	rules, err := a.Singleton(ctx, store.KindProposalRules)
	if err != nil {
		return nil, err
	}

	portfolio, err := a.Portfolio(ctx)
	if err != nil {
		return nil, err
	}

	return &Context{
		PersonalContext: personal,
		ProposalRules:   rules,
		Portfolio:       portfolio,
	}, nil
}

// Singleton reads one optional record. Only structural errors and context
// cancellation are returned; any other failure is logged and reported absent.
func (a *Assembler) Singleton(ctx context.Context, kind store.SingletonKind) (types.Optional[string], error) {
	value, err := a.store.GetSingleton(ctx, kind)
	if err == nil {
		return value, nil
	}

	if store.IsStructural(err) {
		return types.None[string](), err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return types.None[string](), ctxErr
	}

	a.logger.Warn("failed to read optional record, continuing without it",
		zap.String("kind", string(kind)),
		zap.Error(err))
	return types.None[string](), nil
}

// Portfolio reads the full catalog.
func (a *Assembler) Portfolio(ctx context.Context) (types.Portfolio, error) {
	items, err := a.store.ListPortfolioItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		a.logger.Debug("portfolio catalog is empty")
	}
	return items, nil
}
