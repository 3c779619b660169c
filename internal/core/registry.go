package core

import "sync"

// Registry maps authenticated users to their active connection. Only the
// most recent connection per user is kept (last-connection-wins); earlier
// sessions stay subscribed to their rooms but stop receiving targeted
// delivery. Multi-device fan-out would need a set-valued map here.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]*Client
}

// NewRegistry constructs an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[int64]*Client)}
}

// Register records the client as the user's active connection, overwriting
// any prior mapping for that user.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.UserID] = c
}

// Lookup returns the user's active connection. A miss means the user is
// offline, not an error.
func (r *Registry) Lookup(userID int64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// Unregister removes the mapping for the user, but only if it still points
// at the given connection. A stale session disconnecting must not evict a
// newer connection registered after it.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.clients[c.UserID]; ok && cur.ConnID == c.ConnID {
		delete(r.clients, c.UserID)
	}
}

// Len returns the number of users with a live connection.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
