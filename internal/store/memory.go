package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/proposal-writer/internal/types"
)

// Memory is an in-process RecordStore and ProposalArchive.
type Memory struct {
	mu         sync.RWMutex
	portfolio  []types.PortfolioItem
	singletons map[SingletonKind]string
	saved      map[uuid.UUID]types.SavedProposal
	now        func() time.Time
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		singletons: make(map[SingletonKind]string),
		saved:      make(map[uuid.UUID]types.SavedProposal),
		now:        time.Now,
	}
}

// SetPortfolio replaces the catalog.
func (m *Memory) SetPortfolio(items []types.PortfolioItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolio = append([]types.PortfolioItem(nil), items...)
}

// SetSingleton stores the record for kind. A blank value clears it.
func (m *Memory) SetSingleton(kind SingletonKind, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !types.NonBlank(value).IsPresent() {
		delete(m.singletons, kind)
		return
	}
	m.singletons[kind] = value
}

// ListPortfolioItems returns a copy of the catalog.
func (m *Memory) ListPortfolioItems(_ context.Context) ([]types.PortfolioItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.PortfolioItem(nil), m.portfolio...), nil
}

// GetSingleton returns the stored record for kind.
func (m *Memory) GetSingleton(_ context.Context, kind SingletonKind) (types.Optional[string], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.singletons[kind]; ok {
		return types.Some(v), nil
	}
	return types.None[string](), nil
}

// SaveProposal archives a proposal.
func (m *Memory) SaveProposal(_ context.Context, req *types.SaveProposalRequest) (*types.SavedProposal, error) {
	saved := types.SavedProposal{
		ID:            uuid.New(),
		JobBrief:      req.JobBrief,
		Content:       req.Content,
		PortfolioUsed: req.PortfolioUsed,
		CreatedAt:     m.now(),
	}

	m.mu.Lock()
	m.saved[saved.ID] = saved
	m.mu.Unlock()
	return &saved, nil
}

// ListSavedProposals returns saved proposals, newest first.
func (m *Memory) ListSavedProposals(_ context.Context) ([]types.SavedProposal, error) {
	m.mu.RLock()
	out := make([]types.SavedProposal, 0, len(m.saved))
	for _, p := range m.saved {
		out = append(out, p)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteSavedProposal removes a saved proposal.
func (m *Memory) DeleteSavedProposal(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.saved[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(m.saved, id)
	return nil
}
