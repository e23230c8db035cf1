// Package selection asks the model which portfolio items best fit a job brief.
package selection

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/llm"
	"github.com/jonathan/proposal-writer/internal/observability"
	"github.com/jonathan/proposal-writer/internal/prompts"
	"github.com/jonathan/proposal-writer/internal/types"
)

const (
	// Op labels selection model calls in logs and metrics.
	Op = "select_portfolio"
	// MaxSelected caps how many items a selection may contain.
	MaxSelected = 3
	// FallbackCount is how many leading catalog items are used when the model
	// gives no usable answer.
	FallbackCount = 2

	promptFile = "proposal.json"
)

var digitRun = regexp.MustCompile(`\d+`)

// Selector picks relevant portfolio items. It never fails: any problem
// degrades to the first FallbackCount catalog items.
type Selector struct {
	model   llm.Completer
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New creates a Selector.
func New(model llm.Completer, logger *zap.Logger, metrics *observability.Metrics) *Selector {
	return &Selector{model: model, logger: observability.OrNop(logger), metrics: metrics}
}

// Select returns up to MaxSelected items from all, in the order the model
// ranked them.
func (s *Selector) Select(ctx context.Context, jobBrief string, all types.Portfolio) types.Portfolio {
	if len(all) == 0 {
		return types.Portfolio{}
	}

	prompt, err := BuildPrompt(jobBrief, all)
	if err != nil {
		return s.fallback(all, "prompt unavailable", err)
	}

	response, err := s.model.Complete(ctx, Op, prompt, llm.TierLite)
	if err != nil {
		return s.fallback(all, "model call failed", err)
	}

	indices := ParseIndices(response, len(all))
	if len(indices) == 0 {
		return s.fallback(all, "no valid indices in response", nil)
	}

	selected := make(types.Portfolio, len(indices))
	for i, idx := range indices {
		selected[i] = all[idx]
	}

	s.logger.Debug("selected portfolio items",
		zap.Ints("indices", indices),
		zap.Strings("titles", selected.Titles()))
	return selected
}

func (s *Selector) fallback(all types.Portfolio, reason string, err error) types.Portfolio {
	s.metrics.IncStageDegraded(Op)
	s.logger.Warn("portfolio selection degraded to first items",
		zap.String("reason", reason),
		zap.Int("fallback_count", min(FallbackCount, len(all))),
		zap.Error(err))
	return all.Head(FallbackCount)
}

// BuildPrompt renders the selection prompt listing every item with its
// 1-based index.
func BuildPrompt(jobBrief string, all types.Portfolio) (string, error) {
	entryTemplate, err := prompts.Get(promptFile, "portfolio-entry")
	if err != nil {
		return "", err
	}

	entries := make([]string, len(all))
	for i, item := range all {
		description := item.Description
		if description == "" {
			description = "N/A"
		}
		entries[i] = prompts.Format(entryTemplate, map[string]string{
			"Index":       strconv.Itoa(i + 1),
			"Title":       item.Title,
			"Description": description,
			"Link":        item.Link,
		})
	}

	return prompts.Render(promptFile, "select-portfolio", map[string]string{
		"JobBrief":  jobBrief,
		"Portfolio": strings.Join(entries, "\n\n"),
	})
}

// ParseIndices extracts 1-based indices from free text and returns them as
// 0-based positions in [0, n). Out-of-range and repeated indices are dropped,
// model order is kept, and at most MaxSelected are returned.
func ParseIndices(response string, n int) []int {
	var out []int
	seen := make(map[int]bool)

	for _, run := range digitRun.FindAllString(response, -1) {
		if len(out) == MaxSelected {
			break
		}
		v, err := strconv.Atoi(run)
		if err != nil {
			// Digit run too long for an int; certainly out of range.
			continue
		}
		idx := v - 1
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}
