package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/proposal-writer/internal/types"
)

func TestPrintContext(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintContext(types.Some("Designer"), types.None[string](), types.Portfolio{{ID: "1"}, {ID: "2"}})
	output := buf.String()

	assert.Contains(t, output, "ASSEMBLED CONTEXT")
	assert.Contains(t, output, "8 chars")
	assert.Contains(t, output, "(none)")
	assert.Contains(t, output, "2 item(s)")
}

func TestPrintSelection(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSelection(types.Portfolio{
		{ID: "1", Title: "Shopify Store", Link: "https://example.com/shop"},
	}, 4)
	output := buf.String()

	assert.Contains(t, output, "PORTFOLIO SELECTION")
	assert.Contains(t, output, "Selected 1 of 4")
	assert.Contains(t, output, "1. Shopify Store")
	assert.Contains(t, output, "https://example.com/shop")
}

func TestPrintSelection_EmptyCatalog(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSelection(nil, 0)

	assert.Contains(t, buf.String(), "Catalog is empty")
}

func TestPrintProposal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	long := strings.Repeat("word ", 40)
	p.PrintProposal(types.Proposal{Text: "Hello there.\n\n" + long, PortfolioUsed: 2})
	output := buf.String()

	assert.Contains(t, output, "PROPOSAL")
	assert.Contains(t, output, "Portfolio items used: 2")
	assert.Contains(t, output, "Words: 42")
	assert.NotContains(t, output, "...", "paragraphs are wrapped, not truncated")
}

func TestPrintProposal_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProposal(types.Proposal{})

	assert.Empty(t, buf.String())
}

func TestPrintTranscript(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var turns []types.ConversationTurn
	for i := 0; i < 12; i++ {
		turns = append(turns, types.ConversationTurn{Role: types.RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}
	p.PrintTranscript(turns)
	output := buf.String()

	assert.Contains(t, output, "REVISION HISTORY")
	assert.Contains(t, output, "2 earlier turn(s)")
	assert.NotContains(t, output, "[user] turn 0")
	assert.NotContains(t, output, "[user] turn 1 ")
	assert.Contains(t, output, "[user] turn 11")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSelection(types.Portfolio{{
		Title: "A Very Long Portfolio Title That Should Be Truncated To Fit The Box",
		Link:  "https://example.com/" + strings.Repeat("x", 80),
	}}, 1)
	output := buf.String()

	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.Contains(t, output, "...")
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "", wrap("   ", 10))
	assert.Equal(t, "one two\nthree", wrap("one two three", 8))
}
