package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-writer/internal/types"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "paragraphs",
			input:    "Hi there,\n\nI can help.",
			contains: []string{"<p>Hi there,</p>", "<p>I can help.</p>"},
		},
		{
			name:     "hard wraps",
			input:    "Best,\nJane",
			contains: []string{"Best,<br>\nJane"},
		},
		{
			name:     "bare links",
			input:    "See https://example.com/work for details.",
			contains: []string{`<a href="https://example.com/work">`},
		},
		{
			name:     "emphasis",
			input:    "I have **ten years** of experience.",
			contains: []string{"<strong>ten years</strong>"},
		},
		{
			name:     "raw html is not passed through",
			input:    "<script>alert(1)</script>",
			excludes: []string{"<script>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ToHTML(tt.input)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestToPage(t *testing.T) {
	proposal := types.Proposal{
		Text:          "Hello **client**.",
		PortfolioUsed: 1,
		Portfolio:     types.Portfolio{{ID: "1", Title: "Shop <Redesign>", Link: "https://example.com/shop"}},
	}

	out, err := ToPage("Proposal & Co", proposal)

	require.NoError(t, err)
	assert.Contains(t, out, "<title>Proposal &amp; Co</title>")
	assert.Contains(t, out, "<strong>client</strong>")
	assert.Contains(t, out, "Portfolio items referenced: 1")
	assert.Contains(t, out, `<a href="https://example.com/shop">Shop &lt;Redesign&gt;</a>`)
}

func TestToPage_NoPortfolio(t *testing.T) {
	out, err := ToPage("Proposal", types.Proposal{Text: "Hi."})

	require.NoError(t, err)
	assert.NotContains(t, out, "<aside>")
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "render error: boom", (&RenderError{Message: "boom"}).Error())

	err := &TemplateError{Message: "bad", Cause: assert.AnError}
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "template error: bad: ")
}
