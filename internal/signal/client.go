package signal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrClientClosed = errors.New("signal client closed")

// Handler receives every envelope the server delivers to this participant.
type Handler func(Envelope)

// Sender is the narrow send-side view the call session depends on.
type Sender interface {
	Send(Envelope) error
}

// Client is the WebSocket signaling transport. One client per participant;
// the single underlying stream gives per-pair ordering for free.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	handler Handler

	mu     sync.Mutex
	closed bool
}

// Dial connects to the signaling relay and starts the pumps. The handler is
// invoked from the read loop until the connection drops or Close is called.
func Dial(ctx context.Context, url string, handler Handler) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:    conn,
		send:    make(chan []byte, 32),
		handler: handler,
	}
	go c.writePump(ctx)
	go c.readPump(ctx)
	return c, nil
}

// Send queues an envelope; a full queue drops the connection's caller with an
// error rather than blocking the event flow.
func (c *Client) Send(env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return errors.New("signal send queue full")
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.conn.Close()
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal.client").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal.client").Msg("writePump write error")
				return
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				closed := c.closed
				c.mu.Unlock()
				if !closed {
					log.Error().Err(err).Str("module", "signal.client").Msg("readPump read error")
				}
				return
			}
			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				log.Error().Err(err).Str("module", "signal.client").Msg("bad envelope json")
				continue
			}
			if c.handler != nil {
				c.handler(env)
			}
		}
	}
}
