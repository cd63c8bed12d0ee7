// Package ws is the websocket transport adapter: it upgrades
// connections, decodes inbound named events and drives the hub.
package ws

import (
	"sync"

	"github.com/gorilla/websocket"

	"tunelink/internal/core"
)

// wsConn adapts one gorilla connection to the core Sender contract.
// Writes go through a buffered channel drained by writePump, so
// TrySend never blocks the caller.
type wsConn struct {
	id   core.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(id core.ConnID, conn *websocket.Conn, queue int) *wsConn {
	return &wsConn{
		id:   id,
		conn: conn,
		send: make(chan core.Frame, queue),
	}
}

func (c *wsConn) ID() core.ConnID { return c.id }

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}
