package filicious

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// ConnState is the lifecycle state of a backend connection.
type ConnState int

const (
	// StateDisconnected means no connection object is held.
	StateDisconnected ConnState = iota
	// StateConnecting means a dial attempt is in flight.
	StateConnecting
	// StateConnected means a live connection serves operations.
	StateConnected
)

// String returns a human readable state name.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Conn is a live backend connection owned by a single adapter instance.
type Conn interface {
	io.Closer
}

// DialFunc opens and authenticates a backend connection. Authentication
// failure is terminal for the attempt; the manager does not retry.
type DialFunc func(ctx context.Context) (Conn, error)

// ConnManager lazily establishes a backend connection on first use and
// tears it down when the configuration identity changes. One manager
// belongs to exactly one adapter instance; the connection is never
// shared across adapters.
//
// Every state transition and every dispatch goes through a single mutex,
// so an invalidation can never race a live operation into observing a
// half-torn-down connection. Holding the mutex across the dial is
// intentional: operations are synchronous and a caller-triggered
// operation gets exactly one connection attempt, no backoff.
type ConnManager struct {
	mu       sync.Mutex
	state    ConnState
	conn     Conn
	identity string
	dial     DialFunc
	log      *slog.Logger
}

// NewConnManager creates a manager in the Disconnected state. A nil
// logger falls back to slog.Default().
func NewConnManager(dial DialFunc, log *slog.Logger) *ConnManager {
	if log == nil {
		log = slog.Default()
	}
	return &ConnManager{dial: dial, log: log}
}

// Acquire returns the live connection for the given configuration
// identity, dialing lazily when none is held. When the identity differs
// from the one the live connection was established with, the stale
// connection is dropped first and a fresh one is dialed.
func (m *ConnManager) Acquire(ctx context.Context, identity string) (Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateConnected {
		if m.identity == identity {
			return m.conn, nil
		}
		m.dropLocked("configuration changed")
	}

	m.state = StateConnecting
	conn, err := m.dial(ctx)
	if err != nil {
		m.state = StateDisconnected
		m.log.Debug("connection attempt failed", "err", err)
		return nil, &AdapterError{Err: err}
	}

	m.conn = conn
	m.identity = identity
	m.state = StateConnected
	m.log.Debug("connection established", "identity", identity)

	return conn, nil
}

// Reconfigure is the configuration-change notification. A live
// connection established under a different identity is disconnected and
// dropped atomically; a notification carrying the current identity is a
// no-op and never forces a needless reconnect. The next operation dials
// from scratch.
func (m *ConnManager) Reconfigure(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateConnected && m.identity != identity {
		m.dropLocked("reconfigured")
	}
}

// Invalidate unconditionally drops the live connection, if any. Adapters
// call it when a failure indicates the transport itself died.
func (m *ConnManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateConnected {
		m.dropLocked("invalidated")
	}
}

// State returns the current lifecycle state.
func (m *ConnManager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close releases the connection and leaves the manager reusable: a
// subsequent Acquire dials again.
func (m *ConnManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.conn != nil {
		err = m.conn.Close()
	}
	m.conn = nil
	m.identity = ""
	m.state = StateDisconnected
	return err
}

// dropLocked tears down the live connection. Must be called with the
// mutex held and state Connected.
func (m *ConnManager) dropLocked(reason string) {
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.log.Debug("closing stale connection", "reason", reason, "err", err)
		}
	}
	m.conn = nil
	m.identity = ""
	m.state = StateDisconnected
	m.log.Debug("connection dropped", "reason", reason)
}
