package llm

import (
	"context"
	"errors"
	"sync"

	"github.com/jonathan/proposal-writer/internal/keypool"
)

// ClientCache holds one provider client per credential, created on first use.
type ClientCache struct {
	mu      sync.Mutex
	factory Factory
	clients map[keypool.Credential]Client
}

// NewClientCache creates a cache that builds clients with factory.
func NewClientCache(factory Factory) *ClientCache {
	return &ClientCache{
		factory: factory,
		clients: make(map[keypool.Credential]Client),
	}
}

// Get returns the client for cred, creating it if needed.
func (c *ClientCache) Get(ctx context.Context, cred keypool.Credential) (Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[cred]; ok {
		return client, nil
	}

	// The client outlives the attempt that created it.
	client, err := c.factory(context.WithoutCancel(ctx), string(cred))
	if err != nil {
		return nil, err
	}
	c.clients[cred] = client
	return client, nil
}

// Len returns the number of clients created so far.
func (c *ClientCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// Close closes every cached client.
func (c *ClientCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for cred, client := range c.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(c.clients, cred)
	}
	return errors.Join(errs...)
}
