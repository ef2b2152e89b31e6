package application

import (
	"sync"

	"github.com/mwarner/repodash/internal/domain/port/driven"
)

// ClientFactory builds a GitHub client for the given token. An empty token
// produces an anonymous client.
type ClientFactory func(token string) driven.GitHubClient

// ClientCache memoizes GitHub clients per token value so repeated requests
// with the same credential reuse the transport stack, including its
// conditional-request cache, instead of rebuilding it every time. Tokens
// arrive per request, so the cache is the only place clients are created
// after startup.
type ClientCache struct {
	mu      sync.RWMutex
	factory ClientFactory
	clients map[string]driven.GitHubClient
}

// NewClientCache creates a ClientCache around the given factory.
func NewClientCache(factory ClientFactory) *ClientCache {
	return &ClientCache{
		factory: factory,
		clients: make(map[string]driven.GitHubClient),
	}
}

// Get returns the client for token, creating and caching it on first use.
func (c *ClientCache) Get(token string) driven.GitHubClient {
	c.mu.RLock()
	client, ok := c.clients[token]
	c.mu.RUnlock()
	if ok {
		return client
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check under the write lock; another goroutine may have won.
	if client, ok := c.clients[token]; ok {
		return client
	}

	client = c.factory(token)
	c.clients[token] = client
	return client
}
