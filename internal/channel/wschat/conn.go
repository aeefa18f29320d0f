package wschat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/drivedesk/internal/logging"
)

var ErrConnClosed = errors.New("websocket connection closed")

const writeWait = 10 * time.Second

// conn is one connected chat client.
type conn struct {
	id          string
	userID      string
	socket      *websocket.Conn
	connectedAt time.Time

	mu     sync.Mutex
	closed bool
}

func newConn(socket *websocket.Conn, userID string) *conn {
	return &conn{
		id:          uuid.New().String(),
		userID:      userID,
		socket:      socket,
		connectedAt: time.Now(),
	}
}

// send writes one JSON frame. Safe for concurrent use.
func (c *conn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.socket.WriteJSON(v)
}

func (c *conn) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.socket.Close()
}

// connRegistry tracks open connections by id.
type connRegistry struct {
	mu    sync.RWMutex
	conns map[string]*conn
	log   *logging.Logger
}

func newConnRegistry(log *logging.Logger) *connRegistry {
	return &connRegistry{conns: make(map[string]*conn), log: log}
}

func (r *connRegistry) add(c *conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.id] = c
	r.log.Info().Str("connId", c.id).Str("user", c.userID).Msg("client connected")
}

func (r *connRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	r.log.Info().Str("connId", id).Msg("client disconnected")
}

func (r *connRegistry) get(id string) (*conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *connRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *connRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.conns {
		c.close()
		delete(r.conns, id)
	}
}
