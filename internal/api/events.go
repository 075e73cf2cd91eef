package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

type stateEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// handleEvents upgrades to a websocket and pushes a signal after every state
// mutation, so the UI can refresh without polling. Signals are coalesced by
// the store subscription; a slow client sees at least one per burst.
func (s *Server) handleEvents(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch, cancel := s.store.Subscribe()
	defer cancel()

	// Drain reads to notice the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-ch:
			if err := conn.WriteJSON(stateEvent{Type: "state_changed", Timestamp: time.Now().UTC()}); err != nil {
				return
			}
		}
	}
}
