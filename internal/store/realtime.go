package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
)

// InsertEvent is a realtime push for one inserted row.
type InsertEvent struct {
	Topic  string          `json:"topic"`
	Event  string          `json:"event"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

// Channel is one realtime subscription. Build it with OnInsert handlers, then
// Subscribe; RemoveChannel tears it down. A channel is not reusable after
// teardown — closing a group view discards it and a reopened view builds a
// fresh one.
type Channel struct {
	c    *Client
	name string

	mu       sync.RWMutex
	handlers map[string][]func(InsertEvent)
	conn     *websocket.Conn
	cancel   context.CancelFunc
	closed   bool
}

func (c *Client) Channel(name string) *Channel {
	return &Channel{
		c:        c,
		name:     name,
		handlers: make(map[string][]func(InsertEvent)),
	}
}

// OnInsert registers a handler for INSERT events on table.
func (ch *Channel) OnInsert(table string, fn func(InsertEvent)) *Channel {
	ch.mu.Lock()
	ch.handlers[table] = append(ch.handlers[table], fn)
	ch.mu.Unlock()
	return ch
}

// Subscribe dials the realtime endpoint and starts dispatching events until
// ctx is done or the channel is removed.
func (ch *Channel) Subscribe(ctx context.Context) error {
	wsURL := strings.Replace(ch.c.baseURL, "http", "ws", 1) + "/realtime/v1/ws?apikey=" + ch.c.anonKey

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("%w: realtime dial: %v", domain.ErrPersistence, err)
	}

	join := map[string]string{"action": "subscribe", "topic": ch.name}
	if err := conn.WriteJSON(join); err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: realtime subscribe: %v", domain.ErrPersistence, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	ch.mu.Lock()
	ch.conn = conn
	ch.cancel = cancel
	ch.mu.Unlock()

	// ReadMessage blocks; closing the conn on ctx.Done unblocks the loop.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go ch.readLoop(conn)

	log.Info().Str("module", "store.realtime").Str("topic", ch.name).Msg("subscribed")
	return nil
}

func (ch *Channel) readLoop(conn *websocket.Conn) {
	defer func() {
		log.Info().Str("module", "store.realtime").Str("topic", ch.name).Msg("read loop closing")
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !ch.isClosed() {
				log.Error().Err(err).Str("module", "store.realtime").Str("topic", ch.name).Msg("read error")
			}
			return
		}
		var ev InsertEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Error().Err(err).Str("module", "store.realtime").Msg("bad event json")
			continue
		}
		if ev.Event != "INSERT" {
			continue
		}
		ch.mu.RLock()
		fns := ch.handlers[ev.Table]
		ch.mu.RUnlock()
		for _, fn := range fns {
			fn(ev)
		}
	}
}

func (ch *Channel) isClosed() bool {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.closed
}

// RemoveChannel unsubscribes and closes the connection. Safe to call twice.
func (c *Client) RemoveChannel(ch *Channel) {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	ch.closed = true
	cancel, conn := ch.cancel, ch.conn
	ch.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	log.Info().Str("module", "store.realtime").Str("topic", ch.name).Msg("channel removed")
}
