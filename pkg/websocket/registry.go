package websocket

import "sync"

// Registry tracks live connections so shutdown can close them cleanly.
type Registry struct {
	mu      sync.Mutex
	clients map[*Client]bool
	stopped bool
}

func NewRegistry() *Registry {
	return &Registry{clients: map[*Client]bool{}}
}

// Register adds the client, or reports false after Stop so the caller can
// refuse the connection.
func (r *Registry) Register(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	r.clients[c] = true
	return true
}

func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	c.closeSend()
}

// Stop closes every client's send channel; WritePump sends the close frame.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for c := range r.clients {
		c.closeSend()
	}
	r.clients = map[*Client]bool{}
}
