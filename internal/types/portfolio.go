// Package types provides the data shapes shared by the proposal generation stages.
//
//nolint:revive // types is a standard Go package name pattern
package types

// PortfolioItem is one entry of the freelancer's portfolio catalog.
type PortfolioItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
}

// Portfolio is an ordered portfolio catalog or selection.
type Portfolio []PortfolioItem

// Head returns the first n items, or all of them when there are fewer.
func (p Portfolio) Head(n int) Portfolio {
	if n < 0 {
		n = 0
	}
	if n > len(p) {
		n = len(p)
	}
	out := make(Portfolio, n)
	copy(out, p[:n])
	return out
}

// Titles returns the item titles in order.
func (p Portfolio) Titles() []string {
	titles := make([]string, len(p))
	for i, item := range p {
		titles[i] = item.Title
	}
	return titles
}
