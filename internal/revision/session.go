package revision

import (
	"context"
	"sync"

	"github.com/jonathan/proposal-writer/internal/types"
)

// Acknowledgements appended to the transcript after each instruction.
const (
	AckUpdated = "I've updated your proposal based on your request."
	AckFailed  = "Sorry, I encountered an error. Please try again."
)

// Session is one proposal's editing conversation. It owns the latest version
// of the proposal and an append-only transcript. Instructions are applied one
// at a time, each against the version left by the previous one.
type Session struct {
	engine *Engine

	mu       sync.Mutex
	proposal types.Proposal
	turns    []types.ConversationTurn
}

// NewSession starts editing proposal.
func NewSession(engine *Engine, proposal types.Proposal) *Session {
	return &Session{engine: engine, proposal: proposal}
}

// Apply revises the current proposal. On failure the proposal is left as it
// was and the error is returned; the transcript records the attempt either way.
func (s *Session) Apply(ctx context.Context, instruction string) (types.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior := s.copyTurns()
	s.turns = append(s.turns, types.ConversationTurn{Role: types.RoleUser, Content: instruction})

	text, err := s.engine.Revise(ctx, s.proposal.Text, instruction, prior)
	if err != nil {
		s.turns = append(s.turns, types.ConversationTurn{Role: types.RoleAssistant, Content: AckFailed})
		return s.proposal, err
	}

	s.proposal = s.proposal.WithText(text)
	s.turns = append(s.turns, types.ConversationTurn{Role: types.RoleAssistant, Content: AckUpdated})
	return s.proposal, nil
}

// Proposal returns the latest version.
func (s *Session) Proposal() types.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proposal
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []types.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyTurns()
}

func (s *Session) copyTurns() []types.ConversationTurn {
	out := make([]types.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}
