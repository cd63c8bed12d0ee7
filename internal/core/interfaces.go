// Package core holds the in-memory coordination state: which
// connection is in which room, and who is present in a voice room.
// It never touches storage or the transport.
package core

import "errors"

// Frame is one serialized outbound event.
type Frame = []byte

// ConnID identifies a live connection. In this system it equals the
// authenticated identity, one live connection per identity.
type ConnID string

var (
	ErrAuthFailure  = errors.New("authentication failed")
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Sender is the outbound side of a connection as the core sees it.
// TrySend must never block: a full queue returns ErrBackpressure.
type Sender interface {
	ID() ConnID
	TrySend(f Frame) error
	Close()
}
