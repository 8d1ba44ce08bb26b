package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spark-heimdall/heimdall/internal/events"
	"github.com/spark-heimdall/heimdall/internal/infrastructure/config"
	"github.com/spark-heimdall/heimdall/internal/infrastructure/logging"
)

// eventQueueSize is how many frames may wait for a slow client before new
// ones are dropped.
const eventQueueSize = 256

// Origin checks are the CORS middleware's job.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub fans out backend events to the WebSocket clients on /api/events.
// It is created before the Server so the launcher callbacks in main can
// broadcast through it.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*eventClient]struct{}
}

// eventClient is one /api/events connection. A client hears nothing until
// it subscribes.
type eventClient struct {
	hub  *Hub
	conn *websocket.Conn

	mu       sync.Mutex
	queue    chan []byte
	closed   bool
	channels map[string]bool
}

// NewHub creates an empty hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*eventClient]struct{}),
	}
}

// Run blocks until ctx is cancelled and then drops every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*eventClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.shutdown()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast pushes an event frame to every client subscribed to eventType.
// It never blocks: a client whose queue is full misses the event.
func (h *Hub) Broadcast(eventType string, payload any) {
	msg, err := events.NewMessage(events.TypeEvent, payload)
	if err != nil {
		h.logger.Error("failed to encode event", "event_type", eventType, "error", err)
		return
	}
	msg.EventType = eventType
	frame, err := encodeFrame(msg)
	if err != nil {
		h.logger.Error("failed to encode event", "event_type", eventType, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*eventClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.wants(eventType) && c.enqueue(frame) {
			delivered++
		}
	}
	if delivered > 0 {
		h.logger.Debug("event broadcast", "event_type", eventType, "recipients", delivered)
	}
}

func (h *Hub) add(c *eventClient) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	return len(h.clients)
}

func (h *Hub) remove(c *eventClient) int {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	c.shutdown()
	return n
}

// handleWebSocket upgrades GET /api/events and starts the client pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &eventClient{
		hub:      s.hub,
		conn:     conn,
		queue:    make(chan []byte, eventQueueSize),
		channels: make(map[string]bool),
	}
	n := s.hub.add(c)
	s.logger.Debug("websocket client connected", "clients", n, "request_id", requestID(r))

	go c.writeLoop()
	go c.readLoop()
}

func (c *eventClient) pingInterval() time.Duration {
	return time.Duration(c.hub.cfg.PingInterval) * time.Second
}

func (c *eventClient) pongWait() time.Duration {
	return time.Duration(c.hub.cfg.PongTimeout) * time.Second
}

// readLoop handles client frames until the connection fails. Any frame, or a
// pong, pushes the read deadline out by one ping period.
func (c *eventClient) readLoop() {
	defer func() {
		n := c.hub.remove(c)
		c.conn.Close()
		c.hub.logger.Debug("websocket client disconnected", "clients", n)
	}()

	extend := func() error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pingInterval() + c.pongWait()))
	}

	c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	extend() //nolint:errcheck // Failure surfaces on the first read
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		extend() //nolint:errcheck // Failure surfaces on the next read
		c.handle(data)
	}
}

// writeLoop drains the queue and keeps the connection alive with pings.
// It exits when the queue is closed or a write fails.
func (c *eventClient) writeLoop() {
	ticker := time.NewTicker(c.pingInterval())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.queue:
			c.conn.SetWriteDeadline(time.Now().Add(c.pongWait())) //nolint:errcheck // Write error caught below
			if !ok {
				//nolint:errcheck // Best-effort goodbye
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.pongWait())) //nolint:errcheck // Write error caught below
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *eventClient) handle(data []byte) {
	var msg events.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply("", events.TypeError, errorPayload("invalid JSON message"))
		return
	}

	switch msg.Type {
	case events.TypeSubscribe, events.TypeUnsubscribe:
		c.handleSubscription(msg)
	case events.TypePing:
		c.reply(msg.ID, events.TypePong, nil)
	default:
		c.reply(msg.ID, events.TypeError, errorPayload("unknown message type: "+msg.Type))
	}
}

// handleSubscription applies a subscribe or unsubscribe frame. An empty
// channel list means every event type. Unknown event types reject the whole
// frame.
func (c *eventClient) handleSubscription(msg events.Message) {
	var sub events.SubscribePayload
	if len(msg.Payload) > 0 {
		if err := msg.Decode(&sub); err != nil {
			c.reply(msg.ID, events.TypeError, errorPayload("invalid "+msg.Type+" payload"))
			return
		}
	}

	channels := sub.Channels
	if len(channels) == 0 {
		channels = events.All()
	}
	known := events.All()
	var unknown []string
	for _, ch := range channels {
		if !slices.Contains(known, ch) {
			unknown = append(unknown, ch)
		}
	}
	if len(unknown) > 0 {
		c.reply(msg.ID, events.TypeError, errorPayload("unknown event types: "+strings.Join(unknown, ", ")))
		return
	}

	subscribe := msg.Type == events.TypeSubscribe
	c.mu.Lock()
	for _, ch := range channels {
		if subscribe {
			c.channels[ch] = true
		} else {
			delete(c.channels, ch)
		}
	}
	c.mu.Unlock()

	key := "unsubscribed"
	if subscribe {
		key = "subscribed"
		c.hub.logger.Info("websocket client subscribed", "channels", channels)
	}
	c.reply(msg.ID, events.TypeResponse, map[string]any{key: channels})
}

func (c *eventClient) wants(eventType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[eventType]
}

// enqueue reports whether frame was queued. Closed clients and full queues
// both drop the frame.
func (c *eventClient) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.queue <- frame:
		return true
	default:
		return false
	}
}

// shutdown closes the queue once, which ends writeLoop.
func (c *eventClient) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
}

func (c *eventClient) reply(id, frameType string, payload any) {
	msg, err := events.NewMessage(frameType, payload)
	if err != nil {
		return
	}
	msg.ID = id
	frame, err := encodeFrame(msg)
	if err != nil {
		return
	}
	c.enqueue(frame)
}

func encodeFrame(msg events.Message) ([]byte, error) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return json.Marshal(msg)
}

func errorPayload(message string) map[string]string {
	return map[string]string{"message": message}
}
