package llm

import (
	"context"

	"github.com/jonathan/proposal-writer/internal/keypool"
	"github.com/jonathan/proposal-writer/internal/retry"
)

// Completer is the model service as seen by the generation stages. op names
// the calling stage for logs and metrics.
type Completer interface {
	Complete(ctx context.Context, op, prompt string, tier ModelTier) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, op, prompt string, tier ModelTier) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, op, prompt string, tier ModelTier) (string, error) {
	return f(ctx, op, prompt, tier)
}

// RotatingClient sends every model call through the retry executor, using
// the client bound to whichever credential the pool currently leases.
type RotatingClient struct {
	exec  *retry.Executor
	cache *ClientCache
}

// NewRotatingClient creates a RotatingClient.
func NewRotatingClient(exec *retry.Executor, cache *ClientCache) *RotatingClient {
	return &RotatingClient{exec: exec, cache: cache}
}

// Complete generates text for prompt.
func (r *RotatingClient) Complete(ctx context.Context, op, prompt string, tier ModelTier) (string, error) {
	return retry.Execute(ctx, r.exec, op, func(ctx context.Context, cred keypool.Credential) (string, error) {
		client, err := r.cache.Get(ctx, cred)
		if err != nil {
			return "", err
		}
		return client.GenerateContent(ctx, prompt, tier)
	})
}

// Close releases every cached provider client.
func (r *RotatingClient) Close() error {
	return r.cache.Close()
}
