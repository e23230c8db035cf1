// Package llmtest provides test doubles for the llm package.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/proposal-writer/internal/llm"
)

// MockClient implements llm.Client for testing
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GetModelFunc        func(tier llm.ModelTier) string
	CloseFunc           func() error
}

func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Call is one recorded Completer invocation.
type Call struct {
	Op     string
	Prompt string
	Tier   llm.ModelTier
}

// Completer is a scripted llm.Completer that records its calls. Respond picks
// the reply; when nil, Reply/Err are returned.
type Completer struct {
	mu      sync.Mutex
	Respond func(call Call) (string, error)
	Reply   string
	Err     error
	calls   []Call
}

// Complete records the call and returns the scripted reply.
func (c *Completer) Complete(_ context.Context, op, prompt string, tier llm.ModelTier) (string, error) {
	call := Call{Op: op, Prompt: prompt, Tier: tier}

	c.mu.Lock()
	c.calls = append(c.calls, call)
	respond := c.Respond
	c.mu.Unlock()

	if respond != nil {
		return respond(call)
	}
	return c.Reply, c.Err
}

// Calls returns a copy of the recorded calls.
func (c *Completer) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallsFor returns the recorded calls for op.
func (c *Completer) CallsFor(op string) []Call {
	var out []Call
	for _, call := range c.Calls() {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}
