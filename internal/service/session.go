package service

import (
	"fmt"
	"strings"
	"sync"
)

// SessionGate is the local lock screen. It is not authentication: any
// non-empty id/password pair opens it, and the flag lives only in memory.
type SessionGate struct {
	mu     sync.RWMutex
	active bool
}

// NewSessionGate creates a closed gate.
func NewSessionGate() *SessionGate {
	return &SessionGate{}
}

// Open accepts any non-empty credentials and activates the session.
func (g *SessionGate) Open(id, password string) error {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("id and password are required")
	}
	g.mu.Lock()
	g.active = true
	g.mu.Unlock()
	return nil
}

// Close deactivates the session.
func (g *SessionGate) Close() {
	g.mu.Lock()
	g.active = false
	g.mu.Unlock()
}

// Active reports whether the session is open.
func (g *SessionGate) Active() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}
