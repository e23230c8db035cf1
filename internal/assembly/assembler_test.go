package assembly

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-writer/internal/store"
	"github.com/jonathan/proposal-writer/internal/types"
)

// stubStore implements store.RecordStore with per-call results.
type stubStore struct {
	singletons   map[store.SingletonKind]types.Optional[string]
	singletonErr map[store.SingletonKind]error
	portfolio    []types.PortfolioItem
	portfolioErr error
}

func (s *stubStore) ListPortfolioItems(context.Context) ([]types.PortfolioItem, error) {
	return s.portfolio, s.portfolioErr
}

func (s *stubStore) GetSingleton(_ context.Context, kind store.SingletonKind) (types.Optional[string], error) {
	if err := s.singletonErr[kind]; err != nil {
		return types.None[string](), err
	}
	return s.singletons[kind], nil
}

func TestAssemble_AllPresent(t *testing.T) {
	rs := &stubStore{
		singletons: map[store.SingletonKind]types.Optional[string]{
			store.KindPersonalContext: types.Some("background"),
			store.KindProposalRules:   types.Some("rules"),
		},
		portfolio: []types.PortfolioItem{{ID: "1", Title: "A"}},
	}

	got, err := New(rs, nil).Assemble(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "background", got.PersonalContext.OrElse(""))
	assert.Equal(t, "rules", got.ProposalRules.OrElse(""))
	assert.Len(t, got.Portfolio, 1)
}

func TestAssemble_AbsentIsNotAnError(t *testing.T) {
	got, err := New(&stubStore{}, nil).Assemble(context.Background())
	require.NoError(t, err)
	assert.False(t, got.PersonalContext.IsPresent())
	assert.False(t, got.ProposalRules.IsPresent())
	assert.Empty(t, got.Portfolio)
}

func TestAssemble_SingletonReadErrorIsSwallowed(t *testing.T) {
	rs := &stubStore{
		singletonErr: map[store.SingletonKind]error{
			store.KindPersonalContext: &store.ReadError{Op: "personal_context", Cause: errors.New("timeout")},
		},
		singletons: map[store.SingletonKind]types.Optional[string]{
			store.KindProposalRules: types.Some("rules"),
		},
	}

	got, err := New(rs, nil).Assemble(context.Background())
	require.NoError(t, err)
	assert.False(t, got.PersonalContext.IsPresent())
	assert.True(t, got.ProposalRules.IsPresent())
}

func TestAssemble_StructuralErrorPropagates(t *testing.T) {
	serr := &store.StructuralError{Kind: store.KindProposalRules, Message: "unreadable row"}
	rs := &stubStore{singletonErr: map[store.SingletonKind]error{store.KindProposalRules: serr}}

	_, err := New(rs, nil).Assemble(context.Background())
	assert.ErrorIs(t, err, serr)
}

func TestAssemble_PortfolioErrorPropagates(t *testing.T) {
	rerr := &store.ReadError{Op: "portfolio items", Cause: errors.New("connection refused")}
	rs := &stubStore{portfolioErr: rerr}

	_, err := New(rs, nil).Assemble(context.Background())
	assert.ErrorIs(t, err, rerr)
}

func TestSingleton_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rs := &stubStore{singletonErr: map[store.SingletonKind]error{
		store.KindPersonalContext: context.Canceled,
	}}

	_, err := New(rs, nil).Singleton(ctx, store.KindPersonalContext)
	assert.ErrorIs(t, err, context.Canceled)
}
