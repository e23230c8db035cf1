package revision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-writer/internal/llm"
	"github.com/jonathan/proposal-writer/internal/llm/llmtest"
	"github.com/jonathan/proposal-writer/internal/types"
)

// echoModel answers with the instruction found in the prompt so each output
// shows what it was derived from.
func echoModel() *llmtest.Completer {
	return &llmtest.Completer{Respond: func(call llmtest.Call) (string, error) {
		_, after, _ := strings.Cut(call.Prompt, "REQUESTED CHANGE:\n")
		instruction, _, _ := strings.Cut(after, "\n")
		return "Revised for: " + instruction, nil
	}}
}

func TestRevise_Success(t *testing.T) {
	model := &llmtest.Completer{Reply: "```\nShorter letter.\n```"}

	text, err := New(model, nil).Revise(context.Background(), "Long letter.", "make it shorter", nil)

	require.NoError(t, err)
	assert.Equal(t, "Shorter letter.", text)

	calls := model.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, Op, calls[0].Op)
	assert.Equal(t, llm.TierStandard, calls[0].Tier)
	assert.Contains(t, calls[0].Prompt, "Long letter.")
	assert.Contains(t, calls[0].Prompt, "make it shorter")
	assert.NotContains(t, calls[0].Prompt, "CONVERSATION SO FAR")
}

func TestRevise_IndependentCalls(t *testing.T) {
	engine := New(echoModel(), nil)
	ctx := context.Background()

	first, err := engine.Revise(ctx, "Original.", "add a greeting", nil)
	require.NoError(t, err)
	second, err := engine.Revise(ctx, "Original.", "remove the sign-off", nil)
	require.NoError(t, err)

	assert.Equal(t, "Revised for: add a greeting", first)
	assert.Equal(t, "Revised for: remove the sign-off", second)
}

func TestRevise_Errors(t *testing.T) {
	cause := errors.New("invalid argument")

	tests := []struct {
		name        string
		model       *llmtest.Completer
		instruction string
		wantCause   error
		wantCalls   int
	}{
		{"model error", &llmtest.Completer{Err: cause}, "shorter", cause, 1},
		{"empty response", &llmtest.Completer{Reply: "   "}, "shorter", errEmptyRevision, 1},
		{"blank instruction", &llmtest.Completer{Reply: "x"}, "  ", errEmptyInstruction, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.model, nil).Revise(context.Background(), "Letter.", tt.instruction, nil)

			var revErr *Error
			require.ErrorAs(t, err, &revErr)
			assert.ErrorIs(t, err, tt.wantCause)
			assert.True(t, strings.HasPrefix(err.Error(), "failed to revise proposal: "))
			assert.Len(t, tt.model.Calls(), tt.wantCalls)
		})
	}
}

func TestBuildPrompt_History(t *testing.T) {
	prompt, err := BuildPrompt("Letter.", "warmer tone", []types.ConversationTurn{
		{Role: types.RoleUser, Content: "shorter"},
		{Role: types.RoleAssistant, Content: AckUpdated},
	})

	require.NoError(t, err)
	assert.Contains(t, prompt, "CONVERSATION SO FAR:\nUser: shorter\nAssistant: "+AckUpdated)
	assert.Contains(t, prompt, "warmer tone")
}
