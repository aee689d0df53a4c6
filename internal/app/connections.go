package app

import "sync"

// ConnRegistry maps a transport connection to the room it belongs to, so a
// dropped connection can be routed to the right session for cleanup.
type ConnRegistry struct {
	mu    sync.RWMutex
	rooms map[string]string
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{rooms: make(map[string]string)}
}

// Bind associates a connection with a room code, replacing any previous binding.
func (c *ConnRegistry) Bind(connID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[connID] = code
}

// Lookup returns the room code a connection is bound to.
func (c *ConnRegistry) Lookup(connID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.rooms[connID]
	return code, ok
}

// Unbind removes a connection's binding. Unbinding an unknown connection is
// a no-op.
func (c *ConnRegistry) Unbind(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, connID)
}
