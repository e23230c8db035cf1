package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/proposal-writer/internal/store"
	"github.com/jonathan/proposal-writer/internal/types"
)

// SaveProposal archives a proposal and returns the stored record.
func (db *DB) SaveProposal(ctx context.Context, req *types.SaveProposalRequest) (*types.SavedProposal, error) {
	saved := &types.SavedProposal{
		JobBrief:      req.JobBrief,
		Content:       req.Content,
		PortfolioUsed: req.PortfolioUsed,
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO saved_proposals (job_brief, content, portfolio_used)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		req.JobBrief, req.Content, req.PortfolioUsed,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save proposal: %w", err)
	}
	return saved, nil
}

// ListSavedProposals returns saved proposals, newest first.
func (db *DB) ListSavedProposals(ctx context.Context) ([]types.SavedProposal, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_brief, content, portfolio_used, created_at
		 FROM saved_proposals
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, &store.ReadError{Op: "saved proposals", Cause: err}
	}
	defer rows.Close()

	var out []types.SavedProposal
	for rows.Next() {
		var p types.SavedProposal
		if err := rows.Scan(&p.ID, &p.JobBrief, &p.Content, &p.PortfolioUsed, &p.CreatedAt); err != nil {
			return nil, &store.ReadError{Op: "saved proposals", Cause: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.ReadError{Op: "saved proposals", Cause: err}
	}
	return out, nil
}

// DeleteSavedProposal removes a saved proposal.
func (db *DB) DeleteSavedProposal(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM saved_proposals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &store.NotFoundError{ID: id}
	}
	return nil
}

var (
	_ store.RecordStore     = (*DB)(nil)
	_ store.ProposalArchive = (*DB)(nil)
)
