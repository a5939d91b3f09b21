// Package events pushes resource change notifications to console clients
// over websockets, so views can refetch after another client saved.
package events

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"devconsole/pkg/log"
	"devconsole/pkg/models"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout     = 5 * time.Second
	handshakeTimeout = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
)

// conn serializes writes; gorilla websocket connections panic on concurrent writers.
type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *conn) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

func (c *conn) writePing() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// Hub tracks connected clients and broadcasts change events to them.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*conn]struct{}
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	c := &conn{ws: ws}
	h.add(c)
	log.Debug().Str("remote_addr", r.RemoteAddr).Int("clients", h.Count()).Msg("Event client connected")

	done := make(chan struct{})
	go h.keepAlive(c, done)

	// Clients never send anything meaningful; reading drives pong handling
	// and notices the close.
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Event client read failed")
			}
			break
		}
	}

	close(done)
	h.remove(c)
	_ = ws.Close()
	log.Debug().Str("remote_addr", r.RemoteAddr).Int("clients", h.Count()).Msg("Event client disconnected")
}

func (h *Hub) keepAlive(c *conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				return
			}
		}
	}
}

// Publish notifies every client that resource changed.
func (h *Hub) Publish(resource string) {
	event := models.ChangeEvent{Resource: resource, Time: time.Now().UTC()}

	h.mu.RLock()
	conns := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.writeJSON(event); err != nil {
			log.Debug().Err(err).Str("resource", resource).Msg("Dropping event client")
			h.remove(c)
			_ = c.ws.Close()
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// Watch connects to the events endpoint at wsURL and calls handle for every
// change event until ctx is done or the connection fails.
func Watch(ctx context.Context, wsURL string, handle func(models.ChangeEvent)) error {
	parsed, err := url.Parse(wsURL)
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return fmt.Errorf("URL scheme must be ws or wss, got %q", parsed.Scheme)
	}

	dialer := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, parsed.String(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	stop := context.AfterFunc(ctx, func() {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
		_ = ws.Close()
	})
	defer stop()

	for {
		var event models.ChangeEvent
		if err := ws.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return err
		}
		handle(event)
	}
}
