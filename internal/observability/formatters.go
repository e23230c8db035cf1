// Package observability provides logging, metrics and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/proposal-writer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// PrintContext summarizes the records a run was assembled from.
func (p *Printer) PrintContext(personal, rules types.Optional[string], catalog types.Portfolio) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Background:  %s\n", presence(personal)))
	sb.WriteString(fmt.Sprintf("Rules:       %s\n", presence(rules)))
	sb.WriteString(fmt.Sprintf("Portfolio:   %d item(s)", len(catalog)))

	p.printBox("ASSEMBLED CONTEXT", sb.String())
}

func presence(v types.Optional[string]) string {
	text, ok := v.Get()
	if !ok {
		return "(none)"
	}
	return fmt.Sprintf("%d chars", len([]rune(text)))
}

// PrintSelection outputs the portfolio items chosen for a job.
func (p *Printer) PrintSelection(selected types.Portfolio, catalogSize int) {
	if catalogSize == 0 {
		p.printBox("PORTFOLIO SELECTION", "Catalog is empty; no items referenced")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Selected %d of %d item(s)\n\n", len(selected), catalogSize))

	count := min(len(selected), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, selected[i].Title))
		sb.WriteString(fmt.Sprintf("   %s\n", selected[i].Link))
	}

	p.printBox("PORTFOLIO SELECTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProposal outputs the generated letter, wrapped to the box width.
func (p *Printer) PrintProposal(proposal types.Proposal) {
	if proposal.Text == "" {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Portfolio items used: %d\n", proposal.PortfolioUsed))
	sb.WriteString(fmt.Sprintf("Words: %d\n\n", len(strings.Fields(proposal.Text))))
	for _, paragraph := range strings.Split(proposal.Text, "\n") {
		sb.WriteString(wrap(paragraph, boxWidth-4))
		sb.WriteString("\n")
	}

	p.printBox("PROPOSAL", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTranscript outputs the most recent turns of an editing session.
func (p *Printer) PrintTranscript(turns []types.ConversationTurn) {
	if len(turns) == 0 {
		return
	}

	var sb strings.Builder
	start := 0
	if len(turns) > maxItemsToShow*2 {
		start = len(turns) - maxItemsToShow*2
		sb.WriteString(fmt.Sprintf("... %d earlier turn(s)\n", start))
	}
	for _, turn := range turns[start:] {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", turn.Role, turn.Content))
	}

	p.printBox("REVISION HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// wrap breaks text on word boundaries so no line exceeds width runes where
// possible. Single words longer than width are left for printBox to truncate.
func wrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
