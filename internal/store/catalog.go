package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/proposal-writer/internal/schemas"
	"github.com/jonathan/proposal-writer/internal/types"
)

// Catalog is the on-disk form of the freelancer's data.
type Catalog struct {
	PersonalContext types.Optional[string] `json:"personal_context"`
	ProposalRules   types.Optional[string] `json:"proposal_rules"`
	Portfolio       []types.PortfolioItem  `json:"portfolio"`
}

// ParseCatalog validates data against the catalog schema and decodes it.
func ParseCatalog(data []byte) (*Catalog, error) {
	if err := schemas.ValidateCatalog(data); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return &c, nil
}

// LoadCatalogFile reads a catalog file into a new Memory store.
func LoadCatalogFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Op: "catalog file " + path, Cause: err}
	}

	c, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}

	m := NewMemory()
	m.SetPortfolio(c.Portfolio)
	m.SetSingleton(KindPersonalContext, c.PersonalContext.OrElse(""))
	m.SetSingleton(KindProposalRules, c.ProposalRules.OrElse(""))
	return m, nil
}
