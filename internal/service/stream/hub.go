package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	applogger "SignalDesk/pkg/logger"

	"github.com/gorilla/websocket"
)

// ErrHubFull is returned by ServeWS when MaxClients connections are open.
var ErrHubFull = errors.New("websocket hub: too many clients")

type Config struct {
	Enabled        bool          `yaml:"enabled" default:"true" env:"WS_ENABLED"`
	SendBuffer     int           `yaml:"send_buffer" default:"16" validate:"gte=1"`
	WriteTimeout   time.Duration `yaml:"write_timeout" default:"10s"`
	PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	MaxClients     int           `yaml:"max_clients" default:"100" validate:"gte=1"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub broadcasts signal events to connected WebSocket clients. A client
// whose send buffer is full is disconnected rather than slowing the others.
// New clients first receive the last event of every symbol.
type Hub struct {
	cfg      Config
	upgrader websocket.Upgrader
	l        *applogger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    map[string][]byte
	closed  bool
}

var _ domrepo.SignalPublisher = (*Hub)(nil)

func NewHub(cfg Config, l *applogger.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 100
	}
	if l == nil {
		l = applogger.Nop()
	}
	h := &Hub{
		cfg:     cfg,
		l:       l,
		clients: make(map[*client]struct{}),
		last:    make(map[string][]byte),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range h.cfg.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish encodes ev once and queues it for every client.
func (h *Hub) Publish(_ context.Context, ev models.SignalEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("websocket hub: encode %s: %w", ev.Symbol, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New("websocket hub: closed")
	}
	h.last[ev.Symbol] = payload
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.l.Warn("websocket client too slow, disconnecting",
				applogger.String("remote", c.conn.RemoteAddr().String()))
			delete(h.clients, c)
			c.close()
		}
	}
	return nil
}

// ServeWS upgrades the request and serves the client until it disconnects
// or the hub is closed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	if h.Clients() >= h.cfg.MaxClients {
		return ErrHubFull
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	c := &client{conn: conn, send: make(chan []byte, h.cfg.SendBuffer+len(h.snapshotKeys()))}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return nil
	}
	h.l.Debug("websocket client connected", applogger.String("remote", conn.RemoteAddr().String()))

	go h.readPump(c)
	h.writePump(c)
	return nil
}

func (h *Hub) snapshotKeys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]string, 0, len(h.last))
	for k := range h.last {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// register adds c and queues the per-symbol snapshot under the same lock so
// that no broadcast can interleave with it.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	keys := make([]string, 0, len(h.last))
	for k := range h.last {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		select {
		case c.send <- h.last[k]:
		default:
		}
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// readPump discards inbound messages and keeps the read deadline alive on pong.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)
	wait := 2 * h.cfg.PingInterval
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		h.l.Debug("websocket client disconnected", applogger.String("remote", c.conn.RemoteAddr().String()))
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// Close disconnects every client. Later Publish calls fail.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	return nil
}
