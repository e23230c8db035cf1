package selection

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-writer/internal/llm"
	"github.com/jonathan/proposal-writer/internal/llm/llmtest"
	"github.com/jonathan/proposal-writer/internal/types"
)

func catalog(n int) types.Portfolio {
	items := make(types.Portfolio, n)
	for i := range items {
		items[i] = types.PortfolioItem{
			ID:          fmt.Sprintf("id-%d", i),
			Title:       fmt.Sprintf("Project %d", i+1),
			Link:        fmt.Sprintf("https://example.com/%d", i+1),
			Description: fmt.Sprintf("Description %d", i+1),
		}
	}
	return items
}

func TestSelect_EmptyCatalogSkipsModel(t *testing.T) {
	model := &llmtest.Completer{Reply: "1"}

	got := New(model, nil, nil).Select(context.Background(), "brief", nil)

	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Empty(t, model.Calls())
}

func TestSelect_DropsOutOfRange(t *testing.T) {
	all := catalog(5)
	model := &llmtest.Completer{Reply: "2, 4, 9"}

	got := New(model, nil, nil).Select(context.Background(), "brief", all)

	require.Len(t, got, 2)
	assert.Equal(t, all[1], got[0])
	assert.Equal(t, all[3], got[1])
}

func TestSelect_KeepsModelOrder(t *testing.T) {
	all := catalog(6)
	model := &llmtest.Completer{Reply: "5, 1, 3"}

	got := New(model, nil, nil).Select(context.Background(), "brief", all)

	assert.Equal(t, []string{"Project 5", "Project 1", "Project 3"}, got.Titles())
}

func TestSelect_FallbackOnModelError(t *testing.T) {
	all := catalog(4)
	model := &llmtest.Completer{Err: errors.New("quota exceeded")}

	got := New(model, nil, nil).Select(context.Background(), "brief", all)

	assert.Equal(t, all[:2], got)
}

func TestSelect_FallbackOnUnusableResponse(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		n     int
		want  int
	}{
		{"no digits", "The first and third items.", 4, 2},
		{"all out of range", "0, 7, 12", 4, 2},
		{"single item catalog", "none", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := catalog(tt.n)
			got := New(&llmtest.Completer{Reply: tt.reply}, nil, nil).Select(context.Background(), "brief", all)
			assert.Equal(t, all[:tt.want], got)
		})
	}
}

func TestSelect_UsesLiteTierAndPrompt(t *testing.T) {
	all := catalog(2)
	model := &llmtest.Completer{Reply: "1"}

	New(model, nil, nil).Select(context.Background(), "Need a Shopify expert", all)

	calls := model.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, Op, calls[0].Op)
	assert.Equal(t, llm.TierLite, calls[0].Tier)
	assert.Contains(t, calls[0].Prompt, "Need a Shopify expert")
	assert.Contains(t, calls[0].Prompt, "1. Project 1")
	assert.Contains(t, calls[0].Prompt, "2. Project 2")
	assert.Contains(t, calls[0].Prompt, "https://example.com/2")
}

func TestBuildPrompt_MissingDescription(t *testing.T) {
	prompt, err := BuildPrompt("brief", types.Portfolio{{ID: "1", Title: "Bare", Link: "https://x.example"}})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Description: N/A")
}

func TestParseIndices(t *testing.T) {
	tests := []struct {
		name     string
		response string
		n        int
		want     []int
	}{
		{"comma list", "2, 4, 9", 5, []int{1, 3}},
		{"prose", "Items 3 and 1 are the best fit.", 5, []int{2, 0}},
		{"duplicates", "2, 2, 3, 2", 5, []int{1, 2}},
		{"cap at three", "1 2 3 4 5", 5, []int{0, 1, 2}},
		{"cap counts valid only", "9 1 9 2 3 4", 5, []int{0, 1, 2}},
		{"zero dropped", "0, 1", 5, []int{0}},
		{"huge number", "99999999999999999999999, 2", 5, []int{1}},
		{"empty", "", 5, nil},
		{"empty catalog", "1, 2", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIndices(tt.response, tt.n))
		})
	}
}
