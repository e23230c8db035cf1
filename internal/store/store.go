// Package store defines the record store the generation core reads from and
// the archive saved proposals are written to.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/proposal-writer/internal/types"
)

// SingletonKind names a record of which at most one logical instance exists.
type SingletonKind string

// Singleton kinds
const (
	KindPersonalContext SingletonKind = "personal_context"
	KindProposalRules   SingletonKind = "proposal_rules"
)

// RecordStore is the read-only view of the freelancer's data.
type RecordStore interface {
	// ListPortfolioItems returns the catalog in creation order.
	ListPortfolioItems(ctx context.Context) ([]types.PortfolioItem, error)
	// GetSingleton returns the record of kind, or None when there is none.
	GetSingleton(ctx context.Context, kind SingletonKind) (types.Optional[string], error)
}

// ProposalArchive persists proposals the user chose to keep.
type ProposalArchive interface {
	SaveProposal(ctx context.Context, req *types.SaveProposalRequest) (*types.SavedProposal, error)
	ListSavedProposals(ctx context.Context) ([]types.SavedProposal, error)
	DeleteSavedProposal(ctx context.Context, id uuid.UUID) error
}
