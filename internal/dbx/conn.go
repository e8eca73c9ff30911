package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// ReadyState is the lifecycle state of a Conn.
type ReadyState int

const (
	Disconnected ReadyState = iota
	Connected
	Connecting
	Disconnecting
)

var stateNames = [...]string{
	Disconnected:  "disconnected",
	Connected:     "connected",
	Connecting:    "connecting",
	Disconnecting: "disconnecting",
}

func (s ReadyState) valid() bool { return s >= Disconnected && int(s) < len(stateNames) }

func (s ReadyState) String() string {
	if !s.valid() {
		return fmt.Sprintf("ReadyState(%d)", int(s))
	}
	return stateNames[s]
}

// Conn wraps *sql.DB and tracks whether the pool is usable.
type Conn struct {
	mu    sync.RWMutex
	db    *sql.DB
	state ReadyState
}

// openDB is a seam for tests.
var openDB = sql.Open

// Open opens a pool for driver/dsn and pings it. The returned Conn is
// Connected on success; on failure the pool is closed and an error returned.
func Open(ctx context.Context, driver, dsn string) (*Conn, error) {
	c := &Conn{state: Connecting}

	db, err := openDB(driver, dsn)
	if err != nil {
		c.state = Disconnected
		return nil, fmt.Errorf("db open: %w", err)
	}
	c.db = db

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		c.state = Disconnected
		return nil, fmt.Errorf("db ping: %w", err)
	}

	c.setState(Connected)
	return c, nil
}

// NewConn wraps an already opened pool. It is reported as Connected.
func NewConn(db *sql.DB) *Conn {
	return &Conn{db: db, state: Connected}
}

// DB returns the underlying pool.
func (c *Conn) DB() *sql.DB { return c.db }

// State returns the current lifecycle state.
func (c *Conn) State() ReadyState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Conn) setState(s ReadyState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Close closes the pool. Calling Close on a disconnected Conn is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.state == Disconnected || c.state == Disconnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = Disconnecting
	c.mu.Unlock()

	err := c.db.Close()
	c.setState(Disconnected)
	return err
}

// GetState returns the state of h. It reports false when h is not a *Conn
// or its state code is out of range.
func GetState(h any) (ReadyState, bool) {
	c, ok := h.(*Conn)
	if !ok || c == nil {
		return 0, false
	}
	s := c.State()
	if !s.valid() {
		return 0, false
	}
	return s, true
}

// GetStateText is GetState returning the state label.
func GetStateText(h any) (string, bool) {
	s, ok := GetState(h)
	if !ok {
		return "", false
	}
	return s.String(), true
}

// IsAlive reports whether h is a connection that is connected or still
// connecting.
func IsAlive(h any) bool {
	s, ok := GetState(h)
	if !ok {
		return false
	}
	return s == Connected || s == Connecting
}
