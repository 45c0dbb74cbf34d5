package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-zigbee/internal/platform"
)

// Message types on the event stream.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeSubscribed  = "subscribed"
	WSTypeError       = "error"

	wsSendBufferSize = 256
)

// eventTypes are the platform events a client may subscribe to.
var eventTypes = []string{platform.EventStateChanged, platform.EventAttached, platform.EventRemoved}

// WSRequest is a client message.
//
//	{"type":"subscribe","id":"1","events":["accessory.state_changed"],"addresses":["0x00158d0001a2b3c4"]}
type WSRequest struct {
	Type      string   `json:"type"`
	ID        string   `json:"id,omitempty"`
	Events    []string `json:"events,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

// WSMessage is a server message. Event is set for "event", Filter for
// "subscribed", Error for "error".
type WSMessage struct {
	Type   string          `json:"type"`
	ID     string          `json:"id,omitempty"`
	Event  *platform.Event `json:"event,omitempty"`
	Filter *WSFilter       `json:"filter,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// WSFilter is a client's current subscription. No addresses means every device.
type WSFilter struct {
	Events    []string `json:"events"`
	Addresses []string `json:"addresses"`
}

// eventFilter selects the events delivered to one client.
type eventFilter struct {
	events    map[string]bool
	addresses map[string]bool
}

func (f *eventFilter) matches(ev platform.Event) bool {
	if !f.events[ev.Type] {
		return false
	}
	return len(f.addresses) == 0 || f.addresses[ev.Address]
}

func (f *eventFilter) add(req WSRequest) {
	for _, e := range req.Events {
		f.events[e] = true
	}
	for _, a := range req.Addresses {
		f.addresses[a] = true
	}
}

func (f *eventFilter) remove(req WSRequest) {
	for _, e := range req.Events {
		delete(f.events, e)
	}
	for _, a := range req.Addresses {
		delete(f.addresses, a)
	}
}

func (f *eventFilter) view() *WSFilter {
	v := &WSFilter{Events: []string{}, Addresses: []string{}}
	for e := range f.events {
		v.Events = append(v.Events, e)
	}
	for a := range f.addresses {
		v.Addresses = append(v.Addresses, a)
	}
	slices.Sort(v.Events)
	slices.Sort(v.Addresses)
	return v
}

// Hub fans platform events out to WebSocket clients. It is a platform.Sink.
type Hub struct {
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	closed  bool
}

// wsClient is one connection and its event filter.
type wsClient struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	subject string

	mu     sync.Mutex
	filter eventFilter
}

var _ platform.Sink = (*Hub)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{logger: logger, clients: make(map[*wsClient]struct{})}
}

// Run blocks until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleEvent delivers ev to every client whose filter matches. Slow
// clients drop events rather than block the platform.
func (h *Hub) HandleEvent(ev platform.Event) {
	data, err := json.Marshal(WSMessage{Type: WSTypeEvent, Event: &ev})
	if err != nil {
		h.logger.Error("encoding event failed", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.wants(ev) {
			c.enqueue(data)
		}
	}
}

func (h *Hub) add(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// remove is safe to call more than once; only the first call closes send.
func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func newWSClient(h *Hub, conn *websocket.Conn, subject string) *wsClient {
	return &wsClient{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, wsSendBufferSize),
		subject: subject,
		filter:  eventFilter{events: map[string]bool{}, addresses: map[string]bool{}},
	}
}

func (c *wsClient) wants(ev platform.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.matches(ev)
}

// enqueue must be called with the hub lock held, so send is never closed here.
func (c *wsClient) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func (c *wsClient) reply(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; ok {
		c.enqueue(data)
	}
}

// handleWebSocket upgrades the connection. authMiddleware has already run.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := newWSClient(s.hub, conn, subject(r))
	if !s.hub.add(c) {
		conn.Close()
		return
	}
	s.logger.Debug("websocket client connected", "subject", c.subject, "clients", s.hub.ClientCount())

	go c.writeLoop(s.wsCfg)
	go c.readLoop(s.wsCfg)
}

func (c *wsClient) readLoop(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
		c.hub.logger.Debug("websocket client disconnected", "subject", c.subject)
	}()

	idle := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	//nolint:errcheck // Deadline errors surface on the next read
	c.conn.SetReadDeadline(time.Now().Add(idle))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idle))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "subject", c.subject, "error", err)
			}
			return
		}
		//nolint:errcheck // Deadline errors surface on the next read
		c.conn.SetReadDeadline(time.Now().Add(idle))

		var req WSRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.reply(WSMessage{Type: WSTypeError, Error: "invalid JSON message"})
			continue
		}
		c.reply(c.handle(req))
	}
}

func (c *wsClient) writeLoop(cfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	writeWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case data, ok := <-c.send:
			//nolint:errcheck // Write errors are checked below
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint:errcheck // Best-effort close frame
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Write errors are checked below
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle applies one client request and returns the reply.
func (c *wsClient) handle(req WSRequest) WSMessage {
	switch req.Type {
	case WSTypePing:
		return WSMessage{Type: WSTypePong, ID: req.ID}
	case WSTypeSubscribe, WSTypeUnsubscribe:
		for _, e := range req.Events {
			if !slices.Contains(eventTypes, e) {
				return WSMessage{Type: WSTypeError, ID: req.ID, Error: "unknown event type: " + e}
			}
		}
		c.mu.Lock()
		if req.Type == WSTypeSubscribe {
			c.filter.add(req)
		} else {
			c.filter.remove(req)
		}
		view := c.filter.view()
		c.mu.Unlock()

		c.hub.logger.Debug("websocket filter changed", "subject", c.subject,
			"events", view.Events, "addresses", view.Addresses)
		return WSMessage{Type: WSTypeSubscribed, ID: req.ID, Filter: view}
	default:
		return WSMessage{Type: WSTypeError, ID: req.ID, Error: "unknown message type: " + req.Type}
	}
}
