package clients

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Manager tracks the control connection of each client, keyed by clientID.
// A client has at most one live control connection.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*websocket.Conn
}

func NewManager() *Manager {
	return &Manager{clients: make(map[string]*websocket.Conn)}
}

// SetControl registers conn for id and returns the connection it replaced,
// which the caller should close.
func (m *Manager) SetControl(id string, conn *websocket.Conn) (old *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[id]; ok && c != conn {
		old = c
	}
	m.clients[id] = conn
	return
}

// RemoveControl forgets conn if it is still the one registered for id.
func (m *Manager) RemoveControl(id string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[id]; ok && c == conn {
		delete(m.clients, id)
	}
}

// Control returns the live connection for id, or nil.
func (m *Manager) Control(id string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clients[id]
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// CloseAll closes and forgets every connection.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	conns := m.clients
	m.clients = make(map[string]*websocket.Conn)
	m.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}
