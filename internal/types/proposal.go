package types

import (
	"time"

	"github.com/google/uuid"
)

// Proposal is the generated cover letter. PortfolioUsed is fixed when the
// letter is first generated and is not recomputed by revisions.
type Proposal struct {
	Text          string    `json:"text"`
	PortfolioUsed int       `json:"portfolio_used"`
	Portfolio     Portfolio `json:"portfolio,omitempty"`
}

// WithText returns a copy of p carrying revised text.
func (p Proposal) WithText(text string) Proposal {
	p.Text = text
	return p
}

// SavedProposal is an archived proposal.
type SavedProposal struct {
	ID            uuid.UUID `json:"id"`
	JobBrief      string    `json:"job_brief"`
	Content       string    `json:"content"`
	PortfolioUsed int       `json:"portfolio_used"`
	CreatedAt     time.Time `json:"created_at"`
}

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message of a proposal editing session.
type ConversationTurn struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}
