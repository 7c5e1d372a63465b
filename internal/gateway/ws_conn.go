package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024

	sendBuffer = 256
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn wraps one device socket. All outbound frames go through a
// buffered channel drained by writePump; when the buffer is full the
// frame is dropped rather than stalling the session.
type wsConn struct {
	ws     *websocket.Conn
	logger *slog.Logger
	send   chan *Message

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func newWSConn(ws *websocket.Conn, logger *slog.Logger) *wsConn {
	return &wsConn{
		ws:     ws,
		logger: logger,
		send:   make(chan *Message, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Send queues a frame for the device. Returns immediately; a closed
// connection or a full buffer drops the frame.
func (c *wsConn) Send(msg *Message) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	c.mu.RUnlock()

	select {
	case c.send <- msg:
	default:
		c.logger.Warn("send buffer full, dropping frame", "type", msg.Type)
	}
}

// Close tears the socket down. Safe to call more than once.
func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	return c.ws.Close()
}

// CloseWithStatus writes a close frame with the given code before tearing
// down, so the device can tell a deliberate close from a network drop.
func (c *wsConn) CloseWithStatus(code int, reason string) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if !closed {
		deadline := time.Now().Add(writeWait)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), deadline)
	}
	return c.Close()
}

// readPump reads device frames until the socket dies, handing each one to
// handle. It owns the read side: pong handling re-arms the read deadline.
func (c *wsConn) readPump(handle func(*Message)) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("websocket read error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Error("failed to unmarshal frame", "error", err)
			continue
		}

		handle(&msg)
	}
}

// writePump drains the send buffer and keeps the socket alive with pings.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("failed to marshal frame", "error", err)
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
