package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/quadsuit/pokerroom/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	sendBufferSize = 256

	// Inbound events per second per connection, with a small burst.
	inboundRate  = 20
	inboundBurst = 40
)

var (
	ErrSendTimeout     = errors.New("send timeout")
	ErrTransportClosed = errors.New("transport closed")
)

// conn is one websocket client. It implements session.Transport.
type conn struct {
	ws       *websocket.Conn
	userID   string
	username string

	send    chan protocol.Message
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func newConn(ws *websocket.Conn, userID, username string, logger zerolog.Logger) *conn {
	return &conn{
		ws:       ws,
		userID:   userID,
		username: username,
		send:     make(chan protocol.Message, sendBufferSize),
		done:     make(chan struct{}),
		limiter:  rate.NewLimiter(inboundRate, inboundBurst),
		logger:   logger.With().Str("component", "conn").Str("user_id", userID).Logger(),
	}
}

// UserID returns the authenticated user id bound to this connection.
func (c *conn) UserID() string { return c.userID }

// Connected reports whether the connection is still usable.
func (c *conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *conn) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	c.mu.Unlock()
}

// Send queues an event for delivery without ever blocking the caller:
// the room worker holds its lock while fanning out, so a slow consumer
// only costs itself (the frame is dropped once the buffer is full).
func (c *conn) Send(event string, payload any) error {
	if !c.Connected() {
		return ErrTransportClosed
	}
	msg, err := protocol.NewMessage(event, payload)
	if err != nil {
		return err
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return ErrTransportClosed
	default:
		return ErrSendTimeout
	}
}

// readPump reads client events and hands them to the dispatcher. It owns
// the connection's read side and tears the connection down on exit.
func (c *conn) readPump(s *Server) {
	defer func() {
		c.close()
		s.onDisconnect(c)
		_ = c.ws.Close()
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("Unexpected websocket close")
			}
			return
		}

		if !c.limiter.Allow() {
			c.logger.Warn().Msg("Inbound rate limit exceeded, dropping event")
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Debug().Err(err).Msg("Malformed event payload")
			continue
		}
		s.dispatch(c, msg)
	}
}

// writePump drains the send queue to the socket and keeps the ping/pong
// heartbeat alive.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		c.close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
