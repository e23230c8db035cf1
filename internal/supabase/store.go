// Package supabase provides the record store and saved-proposal archive backed
// by a Supabase project's PostgREST API.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/jonathan/proposal-writer/internal/store"
	"github.com/jonathan/proposal-writer/internal/types"
)

const (
	tablePortfolio      = "portfolio_items"
	tableSavedProposals = "saved_proposals"
)

var singletonTables = map[store.SingletonKind]string{
	store.KindPersonalContext: "personal_context",
	store.KindProposalRules:   "proposal_rules",
}

// Store reads and writes the Supabase tables. The PostgREST client does not
// take a context, so ctx is only checked before each request.
type Store struct {
	client *supa.Client
}

// New connects to the Supabase project at url with a service role key.
func New(url, key string) (*Store, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	return &Store{client: client}, nil
}

type portfolioRow struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Link        string          `json:"link"`
	Description *string         `json:"description"`
}

type singletonRow struct {
	Content *string `json:"content"`
}

type savedRow struct {
	ID            uuid.UUID `json:"id"`
	JobBrief      string    `json:"job_brief"`
	Content       string    `json:"content"`
	PortfolioUsed int       `json:"portfolio_used"`
	CreatedAt     time.Time `json:"created_at"`
}

type insertRow struct {
	JobBrief      string `json:"job_brief"`
	Content       string `json:"content"`
	PortfolioUsed int    `json:"portfolio_used"`
}

// ListPortfolioItems returns the catalog ordered by creation time.
func (s *Store) ListPortfolioItems(ctx context.Context) ([]types.PortfolioItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, _, err := s.client.From(tablePortfolio).
		Select("id,title,link,description", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, &store.ReadError{Op: "portfolio items", Cause: err}
	}

	var rows []portfolioRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &store.ReadError{Op: "portfolio items", Cause: err}
	}

	items := make([]types.PortfolioItem, 0, len(rows))
	for _, r := range rows {
		item := types.PortfolioItem{
			ID:    strings.Trim(string(r.ID), `"`),
			Title: r.Title,
			Link:  r.Link,
		}
		if r.Description != nil {
			item.Description = *r.Description
		}
		items = append(items, item)
	}
	return items, nil
}

// GetSingleton returns the newest record of kind.
func (s *Store) GetSingleton(ctx context.Context, kind store.SingletonKind) (types.Optional[string], error) {
	table, ok := singletonTables[kind]
	if !ok {
		return types.None[string](), &store.StructuralError{Kind: kind, Message: "unknown record kind"}
	}
	if err := ctx.Err(); err != nil {
		return types.None[string](), err
	}

	body, _, err := s.client.From(table).
		Select("content", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		Execute()
	if err != nil {
		if isSchemaError(err) {
			return types.None[string](), &store.StructuralError{Kind: kind, Message: "table unavailable", Cause: err}
		}
		return types.None[string](), &store.ReadError{Op: string(kind), Cause: err}
	}

	var rows []singletonRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return types.None[string](), &store.StructuralError{Kind: kind, Message: "unreadable row", Cause: err}
	}
	if len(rows) == 0 || rows[0].Content == nil {
		return types.None[string](), nil
	}
	return types.NonBlank(*rows[0].Content), nil
}

// SaveProposal archives a proposal.
func (s *Store) SaveProposal(ctx context.Context, req *types.SaveProposalRequest) (*types.SavedProposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, _, err := s.client.From(tableSavedProposals).
		Insert(insertRow{JobBrief: req.JobBrief, Content: req.Content, PortfolioUsed: req.PortfolioUsed},
			false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to save proposal: %w", err)
	}

	var rows []savedRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return nil, fmt.Errorf("failed to decode saved proposal: %w", errOrEmpty(err))
	}
	saved := rows[0].toSaved()
	return &saved, nil
}

// ListSavedProposals returns saved proposals, newest first.
func (s *Store) ListSavedProposals(ctx context.Context) ([]types.SavedProposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, _, err := s.client.From(tableSavedProposals).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, &store.ReadError{Op: "saved proposals", Cause: err}
	}

	var rows []savedRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &store.ReadError{Op: "saved proposals", Cause: err}
	}
	out := make([]types.SavedProposal, len(rows))
	for i, r := range rows {
		out[i] = r.toSaved()
	}
	return out, nil
}

// DeleteSavedProposal removes a saved proposal.
func (s *Store) DeleteSavedProposal(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, _, err := s.client.From(tableSavedProposals).
		Delete("representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}

	var rows []savedRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("failed to decode delete response: %w", err)
	}
	if len(rows) == 0 {
		return &store.NotFoundError{ID: id}
	}
	return nil
}

func (r savedRow) toSaved() types.SavedProposal {
	return types.SavedProposal{
		ID:            r.ID,
		JobBrief:      r.JobBrief,
		Content:       r.Content,
		PortfolioUsed: r.PortfolioUsed,
		CreatedAt:     r.CreatedAt,
	}
}

// isSchemaError matches PostgREST errors carrying a class 42 SQLSTATE or a
// PGRST schema-cache miss.
func isSchemaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "(42") || strings.Contains(msg, "PGRST2")
}

var errEmptyResponse = errors.New("empty response")

func errOrEmpty(err error) error {
	if err != nil {
		return err
	}
	return errEmptyResponse
}

var (
	_ store.RecordStore     = (*Store)(nil)
	_ store.ProposalArchive = (*Store)(nil)
)
