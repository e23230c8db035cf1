package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-writer/internal/llm/llmtest"
	"github.com/jonathan/proposal-writer/internal/store"
)

func TestRunBatch_OrderAndIsolation(t *testing.T) {
	model := &llmtest.Completer{Respond: func(call llmtest.Call) (string, error) {
		if strings.Contains(call.Prompt, "broken brief") {
			return "", errors.New("invalid argument")
		}
		_, after, _ := strings.Cut(call.Prompt, "JOB BRIEF:\n\"\"\"\n")
		brief, _, _ := strings.Cut(after, "\n")
		return "Letter for " + brief, nil
	}}
	p := New(Options{Records: store.NewMemory(), Model: model})

	results, err := p.RunBatch(context.Background(), []string{"first", "broken brief", "third"}, 2, nil)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Letter for first", results[0].Proposal.Text)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Equal(t, 1, results[1].Index)
	assert.Equal(t, "Letter for third", results[2].Proposal.Text)
}

func TestRunBatch_RespectsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	model := &llmtest.Completer{Respond: func(llmtest.Call) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return "Letter.", nil
	}}
	p := New(Options{Records: store.NewMemory(), Model: model})

	briefs := []string{"a", "b", "c", "d", "e", "f"}
	results, err := p.RunBatch(context.Background(), briefs, 2, nil)

	require.NoError(t, err)
	assert.Len(t, results, len(briefs))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := New(Options{Records: store.NewMemory(), Model: &llmtest.Completer{Reply: "x"}}).
		RunBatch(ctx, []string{"a", "b"}, 0, nil)

	assert.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
