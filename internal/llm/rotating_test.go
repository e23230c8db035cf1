package llm_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-writer/internal/keypool"
	"github.com/jonathan/proposal-writer/internal/llm"
	"github.com/jonathan/proposal-writer/internal/llm/llmtest"
	"github.com/jonathan/proposal-writer/internal/retry"
)

// quotaFactory builds clients whose behavior depends on the key they were
// created with: keys listed in exhausted always fail with a quota error.
func quotaFactory(exhausted map[string]bool, created *[]string) llm.Factory {
	return func(_ context.Context, apiKey string) (llm.Client, error) {
		*created = append(*created, apiKey)
		return &llmtest.MockClient{
			GenerateContentFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
				if exhausted[apiKey] {
					return "", errors.New("googleapi: Error 429: Resource has been exhausted (e.g. check quota)")
				}
				return fmt.Sprintf("%s:%s", apiKey, prompt), nil
			},
		}, nil
	}
}

func TestRotatingClient_RotatesPastExhaustedKeys(t *testing.T) {
	pool := keypool.New([]string{"k1", "k2", "k3"})
	var created []string
	cache := llm.NewClientCache(quotaFactory(map[string]bool{"k1": true, "k2": true}, &created))
	client := llm.NewRotatingClient(retry.NewExecutor(pool, retry.Options{}), cache)

	got, err := client.Complete(context.Background(), "letter", "hello", llm.TierStandard)

	require.NoError(t, err)
	assert.Equal(t, "k3:hello", got)
	assert.Equal(t, []string{"k1", "k2", "k3"}, created)
	assert.Equal(t, 2, pool.Index())
}

func TestRotatingClient_ReusesClients(t *testing.T) {
	pool := keypool.New([]string{"k1", "k2"})
	var created []string
	cache := llm.NewClientCache(quotaFactory(nil, &created))
	client := llm.NewRotatingClient(retry.NewExecutor(pool, retry.Options{}), cache)

	for i := 0; i < 3; i++ {
		_, err := client.Complete(context.Background(), "letter", "x", llm.TierStandard)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"k1"}, created)
	assert.Equal(t, 1, cache.Len())
}

func TestRotatingClient_FactoryErrorPropagates(t *testing.T) {
	pool := keypool.New([]string{"k1", "k2"})
	cache := llm.NewClientCache(func(context.Context, string) (llm.Client, error) {
		return nil, errors.New("failed to create Gemini client: bad endpoint")
	})
	client := llm.NewRotatingClient(retry.NewExecutor(pool, retry.Options{}), cache)

	_, err := client.Complete(context.Background(), "letter", "x", llm.TierStandard)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad endpoint")
	assert.Equal(t, 0, pool.Index())
}

func TestRotatingClient_NoKeys(t *testing.T) {
	var created []string
	client := llm.NewRotatingClient(
		retry.NewExecutor(keypool.New(nil), retry.Options{}),
		llm.NewClientCache(quotaFactory(nil, &created)),
	)

	_, err := client.Complete(context.Background(), "select", "x", llm.TierLite)

	assert.ErrorIs(t, err, keypool.ErrNoCredentialsConfigured)
	assert.Empty(t, created)
}

func TestClientCache_CloseClosesAll(t *testing.T) {
	closed := 0
	cache := llm.NewClientCache(func(context.Context, string) (llm.Client, error) {
		return &llmtest.MockClient{CloseFunc: func() error {
			closed++
			return nil
		}}, nil
	})

	_, err := cache.Get(context.Background(), "a")
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), "b")
	require.NoError(t, err)

	require.NoError(t, cache.Close())
	assert.Equal(t, 2, closed)
	assert.Equal(t, 0, cache.Len())
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, err := llm.NewClient(context.Background(), &llm.Config{Provider: "anthropic"}, "key")
	assert.Error(t, err)
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := llm.NewOpenAIClient(nil, "")
	assert.Error(t, err)

	client, err := llm.NewOpenAIClient(nil, "sk-test")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", client.GetModel(llm.TierStandard))
	assert.NoError(t, client.Close())
}
