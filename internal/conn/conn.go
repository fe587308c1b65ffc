// Package conn owns a single WebSocket connection to one backend channel
// (a room channel or the global notification channel). It moves frames,
// it never interprets them; consumers subscribe and filter by envelope type.
package conn

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aurachat/aurasync/internal/config"
	"github.com/aurachat/aurasync/internal/log"
	"github.com/aurachat/aurasync/internal/metrics"
)

var (
	ErrBadEndpoint = errors.New("conn: empty endpoint or token")
)

// Subscriber receives every inbound frame. Handlers run on the read pump
// goroutine, so frames from one socket are observed in arrival order.
type Subscriber func(frame []byte)

// Conn is one live WebSocket connection.
type Conn struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	cfg  config.WebSocketConfig

	ready atomic.Bool

	mu     sync.RWMutex
	subs   map[string]Subscriber
	order  []string
	closed bool
	done   chan struct{}
}

// Dial opens a WebSocket to endpoint, authenticating with token via the
// query string. The connection is ready once Dial returns; an abrupt close
// later flips readiness off. There is no automatic reconnection: a dropped
// socket stays down until the owner dials again.
func Dial(ctx context.Context, endpoint, token string, cfg config.WebSocketConfig) (*Conn, error) {
	if endpoint == "" || token == "" {
		return nil, ErrBadEndpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		metrics.SocketDialFailures.Inc()
		return nil, err
	}

	c := &Conn{
		ID:   uuid.New().String(),
		conn: ws,
		send: make(chan []byte, cfg.SendBuffer),
		cfg:  cfg,
		subs: make(map[string]Subscriber),
		done: make(chan struct{}),
	}
	c.ready.Store(true)
	metrics.SocketsOpen.Inc()

	go c.writePump()
	go c.readPump()

	l := log.L()
	l.Debug().Str("conn_id", c.ID).Str("endpoint", u.Path).Msg("socket connected")
	return c, nil
}

// Ready reports whether the socket is open and accepting sends.
func (c *Conn) Ready() bool {
	return c.ready.Load()
}

// Send serializes v and queues it for transmission. Sends on a socket that
// is not ready, or whose send buffer is full, are dropped without error;
// callers gate on Ready() first.
func (c *Conn) Send(v interface{}) {
	if !c.ready.Load() {
		metrics.SendsDropped.Inc()
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str("conn_id", c.ID).Msg("envelope marshal failed")
		return
	}
	select {
	case c.send <- data:
	default:
		metrics.SendsDropped.Inc()
	}
}

// Subscribe registers fn for every inbound frame and returns a
// subscription id for Unsubscribe.
func (c *Conn) Subscribe(fn Subscriber) string {
	id := uuid.New().String()
	c.mu.Lock()
	c.subs[id] = fn
	c.order = append(c.order, id)
	c.mu.Unlock()
	return id
}

// Unsubscribe removes a subscriber; unknown ids are ignored.
func (c *Conn) Unsubscribe(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[id]; !ok {
		return
	}
	delete(c.subs, id)
	for i, sid := range c.order {
		if sid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Close tears the connection down. Idempotent.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.ready.Store(false)
	close(c.done)
	c.conn.Close()
	metrics.SocketsOpen.Dec()
}

// Done is closed once the connection has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l := log.L()
				l.Warn().Err(err).Str("conn_id", c.ID).Msg("socket read failed")
			}
			c.ready.Store(false)
			return
		}
		c.dispatch(frame)
	}
}

func (c *Conn) dispatch(frame []byte) {
	c.mu.RLock()
	fns := make([]Subscriber, 0, len(c.order))
	for _, id := range c.order {
		fns = append(fns, c.subs[id])
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(frame)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.ready.Store(false)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.ready.Store(false)
				return
			}

		case <-c.done:
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
