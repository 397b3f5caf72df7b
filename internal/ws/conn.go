package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1 << 16
	sendBufferSize = 64
)

// Close codes sent to clients when the server ends a session.
const (
	CloseSessionReplaced = 4001
	CloseSlowConsumer    = 4008
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is a live connection handle held by the registry.
type Conn interface {
	ID() string
	// Send enqueues payload without blocking.
	Send(payload []byte) error
	Close(code int, reason string)
}

// Client is a websocket-backed Conn. One writer goroutine drains the send buffer in FIFO order.
type Client struct {
	info ConnInfo
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

var _ Conn = (*Client)(nil)

// NewClient wraps ws for the user described by info.
func NewClient(ws *websocket.Conn, info ConnInfo) *Client {
	return &Client{
		info: info,
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.info.ConnID
}

// Info returns the connection metadata.
func (c *Client) Info() ConnInfo {
	return c.info
}

func (c *Client) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// Close sends a close frame and tears the socket down. Safe to call more than once.
func (c *Client) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

// Done is closed once the connection is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

// readPump blocks until the peer goes away. Inbound frames carry no commands and are discarded.
func (c *Client) readPump() error {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return err
		}
	}
}
