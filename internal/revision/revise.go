// Package revision rewrites an existing proposal according to free-text
// instructions and keeps the editing conversation around it.
package revision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/llm"
	"github.com/jonathan/proposal-writer/internal/observability"
	"github.com/jonathan/proposal-writer/internal/prompts"
	"github.com/jonathan/proposal-writer/internal/types"
)

// Op labels revision model calls in logs and metrics.
const Op = "revise_letter"

const promptFile = "proposal.json"

var (
	errEmptyInstruction = errors.New("instruction is empty")
	errEmptyRevision    = errors.New("model returned an empty proposal")
)

// Engine applies one instruction to one version of a proposal. It keeps no
// state between calls: every revision is derived from the text it is given.
type Engine struct {
	model  llm.Completer
	logger *zap.Logger
}

// New creates an Engine.
func New(model llm.Completer, logger *zap.Logger) *Engine {
	return &Engine{model: model, logger: observability.OrNop(logger)}
}

// Revise returns currentText rewritten per instruction. priorTurns is the
// conversation before this instruction and is given to the model as context.
func (e *Engine) Revise(ctx context.Context, currentText, instruction string, priorTurns []types.ConversationTurn) (string, error) {
	if strings.TrimSpace(instruction) == "" {
		return "", &Error{Message: revisionFailed, Cause: errEmptyInstruction}
	}

	prompt, err := BuildPrompt(currentText, instruction, priorTurns)
	if err != nil {
		return "", &Error{Message: revisionFailed, Cause: err}
	}

	response, err := e.model.Complete(ctx, Op, prompt, llm.TierStandard)
	if err != nil {
		return "", &Error{Message: revisionFailed, Cause: err}
	}

	text := llm.CleanText(response)
	if text == "" {
		return "", &Error{Message: revisionFailed, Cause: errEmptyRevision}
	}

	e.logger.Debug("revised proposal",
		zap.Int("prior_turns", len(priorTurns)),
		zap.Int("chars_before", len(currentText)),
		zap.Int("chars_after", len(text)))
	return text, nil
}

// BuildPrompt renders the revision prompt.
func BuildPrompt(currentText, instruction string, priorTurns []types.ConversationTurn) (string, error) {
	var history string
	if len(priorTurns) > 0 {
		var err error
		history, err = prompts.Render(promptFile, "revise-history", map[string]string{"Turns": formatTurns(priorTurns)})
		if err != nil {
			return "", err
		}
	}

	return prompts.Render(promptFile, "revise-letter", map[string]string{
		"History":     history,
		"CurrentText": currentText,
		"Instruction": instruction,
	})
}

func formatTurns(turns []types.ConversationTurn) string {
	lines := make([]string, len(turns))
	for i, turn := range turns {
		speaker := "User"
		if turn.Role == types.RoleAssistant {
			speaker = "Assistant"
		}
		lines[i] = fmt.Sprintf("%s: %s", speaker, turn.Content)
	}
	return strings.Join(lines, "\n")
}
