// Package wschat is a browser-friendly chat channel over WebSocket.
//
// Clients connect to the channel path, optionally with ?user=<id>, and
// exchange JSON frames:
//
//	in:  {"user": "U1", "text": "find the budget sheet"}
//	out: {"text": "...", "replyTo": "<message id>"}
package wschat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/logging"
)

const (
	ChannelID = "wschat"

	maxFrameBytes = 64 * 1024
)

// InFrame is a message from a client.
type InFrame struct {
	User string `json:"user,omitempty"`
	Text string `json:"text"`
}

// OutFrame is a reply or notice sent to a client.
type OutFrame struct {
	Text    string `json:"text"`
	ReplyTo string `json:"replyTo,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Channel implements channel.HTTPChannel.
type Channel struct {
	path     string
	upgrader websocket.Upgrader
	conns    *connRegistry
	running  atomic.Bool
	log      *logging.Logger

	mu      sync.RWMutex
	handler func(domain.InboundMessage)
}

// New creates the channel. allowedOrigins limits browser origins; an empty
// list accepts only requests without an Origin header.
func New(path string, allowedOrigins []string, log *logging.Logger) *Channel {
	if path == "" {
		path = "/ws"
	}
	l := log.Sub("wschat")
	return &Channel{
		path: path,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		conns: newConnRegistry(l),
		log:   l,
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func (c *Channel) ID() string   { return ChannelID }
func (c *Channel) Path() string { return c.path }

func (c *Channel) Start(ctx context.Context) error {
	c.running.Store(true)
	<-ctx.Done()
	return c.Stop(context.Background())
}

func (c *Channel) Stop(_ context.Context) error {
	c.running.Store(false)
	c.conns.closeAll()
	return nil
}

func (c *Channel) OnMessage(handler func(domain.InboundMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *Channel) Status() domain.ChannelStatus {
	return domain.ChannelStatus{ChannelID: ChannelID, Running: c.running.Load()}
}

// Connections returns the number of open sockets.
func (c *Channel) Connections() int { return c.conns.count() }

// Send writes a reply to the connection the message came from. msg.To is
// the connection id.
func (c *Channel) Send(_ context.Context, msg domain.OutboundMessage) error {
	cn, ok := c.conns.get(msg.To)
	if !ok {
		return fmt.Errorf("wschat: connection %s: %w", msg.To, ErrConnClosed)
	}
	return cn.send(OutFrame{Text: msg.Body, ReplyTo: msg.ReplyToID})
}

func (c *Channel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	socket.SetReadLimit(maxFrameBytes)

	cn := newConn(socket, strings.TrimSpace(r.URL.Query().Get("user")))
	c.conns.add(cn)
	defer func() {
		c.conns.remove(cn.id)
		cn.close()
	}()

	c.readLoop(cn)
}

func (c *Channel) readLoop(cn *conn) {
	for {
		_, data, err := cn.socket.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Str("connId", cn.id).Msg("client closed connection")
			} else {
				c.log.Debug().Err(err).Str("connId", cn.id).Msg("read error")
			}
			return
		}

		var in InFrame
		if err := json.Unmarshal(data, &in); err != nil {
			cn.send(OutFrame{Error: "frames must be JSON objects like {\"text\": \"...\"}"})
			continue
		}
		text := strings.TrimSpace(in.Text)
		if text == "" {
			continue
		}

		userID := cn.userID
		if userID == "" {
			userID = strings.TrimSpace(in.User)
		}
		if userID == "" {
			cn.send(OutFrame{Error: "user is required, connect with ?user=<id> or send it in the frame"})
			continue
		}

		c.mu.RLock()
		h := c.handler
		c.mu.RUnlock()
		if h == nil {
			cn.send(OutFrame{Error: "not ready"})
			continue
		}

		h(domain.InboundMessage{
			ID:          uuid.New().String(),
			ChannelID:   ChannelID,
			UserID:      userID,
			Body:        text,
			Timestamp:   time.Now(),
			ReplyTarget: cn.id,
		})
	}
}
