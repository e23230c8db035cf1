// Package letter writes the proposal cover letter from the assembled context.
package letter

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

// Op labels letter model calls in logs and metrics.
const Op = "generate_letter"

const promptFile = "proposal.json"

var errEmptyLetter = errors.New("model returned an empty letter")

// Input is everything the letter is written from.
type Input struct {
	JobBrief        string
	Portfolio       types.Portfolio
	PersonalContext types.Optional[string]
	ProposalRules   types.Optional[string]
}

// Generator produces cover letters with exactly one model call each.
type Generator struct {
	model  llm.Completer
	logger *zap.Logger
}

// New creates a Generator.
func New(model llm.Completer, logger *zap.Logger) *Generator {
	return &Generator{model: model, logger: observability.OrNop(logger)}
}

// Generate writes the letter. Errors are wrapped in *GenerationError.
func (g *Generator) Generate(ctx context.Context, in Input) (string, error) {
	prompt, err := BuildPrompt(in)
	if err != nil {
		return "", &GenerationError{Message: generationFailed, Cause: err}
	}

	response, err := g.model.Complete(ctx, Op, prompt, llm.TierStandard)
	if err != nil {
		return "", &GenerationError{Message: generationFailed, Cause: err}
	}

	text := llm.CleanText(response)
	if text == "" {
		return "", &GenerationError{Message: generationFailed, Cause: errEmptyLetter}
	}

	g.logger.Debug("generated cover letter",
		zap.Int("chars", len(text)),
		zap.Int("portfolio_items", len(in.Portfolio)),
		zap.Bool("has_background", in.PersonalContext.IsPresent()),
		zap.Bool("has_rules", in.ProposalRules.IsPresent()))
	return text, nil
}

// BuildPrompt assembles the letter prompt. Optional sections are omitted
// entirely when absent and the numbered instructions switch accordingly.
func BuildPrompt(in Input) (string, error) {
	var background, portfolio, rules string
	var err error

	if v, ok := in.PersonalContext.Get(); ok {
		if background, err = prompts.Render(promptFile, "letter-background", map[string]string{"Background": v}); err != nil {
			return "", err
		}
	}

	portfolioInstruction := "letter-no-portfolio-instruction"
	if len(in.Portfolio) > 0 {
		portfolioInstruction = "letter-portfolio-instruction"
		if portfolio, err = prompts.Render(promptFile, "letter-portfolio", map[string]string{"Portfolio": formatLinks(in.Portfolio)}); err != nil {
			return "", err
		}
	}

	rulesInstruction := "letter-no-rules-instruction"
	if v, ok := in.ProposalRules.Get(); ok {
		rulesInstruction = "letter-rules-instruction"
		if rules, err = prompts.Render(promptFile, "letter-rules", map[string]string{"Rules": v}); err != nil {
			return "", err
		}
	}

	pi, err := prompts.Get(promptFile, portfolioInstruction)
	if err != nil {
		return "", err
	}
	ri, err := prompts.Get(promptFile, rulesInstruction)
	if err != nil {
		return "", err
	}

	return prompts.Render(promptFile, "generate-letter", map[string]string{
		"JobBrief":             in.JobBrief,
		"Background":           background,
		"Portfolio":            portfolio,
		"Rules":                rules,
		"PortfolioInstruction": pi,
		"RulesInstruction":     ri,
	})
}

func formatLinks(items types.Portfolio) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("- %s: %s", item.Title, item.Link)
	}
	return strings.Join(lines, "\n")
}
