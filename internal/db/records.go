package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/proposal-writer/internal/store"
	"github.com/jonathan/proposal-writer/internal/types"
)

var singletonTables = map[store.SingletonKind]string{
	store.KindPersonalContext: "personal_context",
	store.KindProposalRules:   "proposal_rules",
}

// ListPortfolioItems returns every portfolio item, oldest first.
func (db *DB) ListPortfolioItems(ctx context.Context) ([]types.PortfolioItem, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, title, link, COALESCE(description, '')
		 FROM portfolio_items
		 ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, &store.ReadError{Op: "portfolio items", Cause: err}
	}
	defer rows.Close()

	var items []types.PortfolioItem
	for rows.Next() {
		var (
			id   int64
			item types.PortfolioItem
		)
		if err := rows.Scan(&id, &item.Title, &item.Link, &item.Description); err != nil {
			return nil, &store.ReadError{Op: "portfolio items", Cause: err}
		}
		item.ID = strconv.FormatInt(id, 10)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.ReadError{Op: "portfolio items", Cause: err}
	}
	return items, nil
}

// GetSingleton returns the most recent record of kind. Missing rows and blank
// content are absent; rows that exist but cannot be read as text are
// structural errors.
func (db *DB) GetSingleton(ctx context.Context, kind store.SingletonKind) (types.Optional[string], error) {
	table, ok := singletonTables[kind]
	if !ok {
		return types.None[string](), &store.StructuralError{Kind: kind, Message: "unknown record kind"}
	}

	var content *string
	err := db.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT content FROM %s ORDER BY created_at DESC, id DESC LIMIT 1`, table),
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.None[string](), nil
		}
		if isStructural(err) {
			return types.None[string](), &store.StructuralError{Kind: kind, Message: "unreadable row", Cause: err}
		}
		return types.None[string](), &store.ReadError{Op: string(kind), Cause: err}
	}

	if content == nil {
		return types.None[string](), nil
	}
	return types.NonBlank(*content), nil
}

// isStructural separates schema and decoding problems from transient failures.
func isStructural(err error) bool {
	var scanErr pgx.ScanArgError
	if errors.As(err, &scanErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 42: syntax error or access rule violation (undefined table/column).
		return strings.HasPrefix(pgErr.Code, "42")
	}
	return false
}
