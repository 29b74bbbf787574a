package mcp

import (
	"net/http"
	"sync"
)

// ClientCache shares one Client per server URL across all node tasks in a
// run. It is guarded by two nested locks, per spec.md §9: an outer lock
// protects the map of server URL to cache slot, and each slot's own
// sync.Once makes first-use initialization atomic without serializing
// subsequent calls to an already-initialized client.
type ClientCache struct {
	httpClient *http.Client

	mu    sync.Mutex
	slots map[string]*clientSlot
}

type clientSlot struct {
	once   sync.Once
	client *Client
}

// NewClientCache returns an empty ClientCache. httpClient is shared by
// every Client it creates; pass nil to use http.DefaultClient.
func NewClientCache(httpClient *http.Client) *ClientCache {
	return &ClientCache{httpClient: httpClient, slots: make(map[string]*clientSlot)}
}

// Get returns the Client for serverURL, creating it on first use. The outer
// lock is held only long enough to find-or-insert the slot; the slot's own
// sync.Once then performs construction without blocking lookups for other
// server URLs.
func (c *ClientCache) Get(serverURL string) *Client {
	c.mu.Lock()
	slot, ok := c.slots[serverURL]
	if !ok {
		slot = &clientSlot{}
		c.slots[serverURL] = slot
	}
	c.mu.Unlock()

	slot.once.Do(func() {
		slot.client = NewClient(serverURL, c.httpClient)
	})
	return slot.client
}
