package handlers

import (
	"errors"
	"strings"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-platform/internal/events"
)

// wsClient adapts one websocket connection to the subscriber registry. A
// dedicated writer goroutine owns all writes; Send only enqueues, so a slow
// or dead connection can never stall a broadcast. A full queue counts as a
// dead connection and gets the handle pruned.
type wsClient struct {
	outbound chan []byte
	done     chan struct{}
	once     sync.Once
}

func newWSClient(queueSize int) *wsClient {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &wsClient{
		outbound: make(chan []byte, queueSize),
		done:     make(chan struct{}),
	}
}

// Send enqueues a frame without blocking.
func (c *wsClient) Send(payload []byte) error {
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}
	select {
	case c.outbound <- payload:
		return nil
	default:
		return errors.New("outbound queue full")
	}
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.done) })
}

// WebSocketHandler serves the live notification endpoint.
type WebSocketHandler struct {
	registry  *events.SubscriberRegistry
	channel   string
	queueSize int
	logger    *zap.Logger
}

// NewWebSocketHandler constructs handler.
func NewWebSocketHandler(registry *events.SubscriberRegistry, channel string, queueSize int, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		registry:  registry,
		channel:   channel,
		queueSize: queueSize,
		logger:    logger,
	}
}

// Upgrade gates the route to genuine websocket upgrade requests.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handle returns the connection handler for GET /ws/notifications.
func (h *WebSocketHandler) Handle() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		h.serve(conn)
	})
}

func (h *WebSocketHandler) serve(conn *websocket.Conn) {
	client := newWSClient(h.queueSize)
	defer client.close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case payload := <-client.outbound:
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					client.close()
					return
				}
			case <-client.done:
				return
			}
		}
	}()

	if err := client.Send([]byte(`{"event":"connected"}`)); err != nil {
		return
	}

	h.registry.Add(h.channel, client)
	defer h.registry.Remove(h.channel, client)
	h.logger.Info("websocket subscriber connected",
		zap.String("channel", h.channel),
		zap.Int("subscribers", h.registry.Count(h.channel)))

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if strings.TrimSpace(string(msg)) == "ping" {
			if err := client.Send([]byte("pong")); err != nil {
				break
			}
		}
	}

	client.close()
	<-writerDone
	h.logger.Info("websocket subscriber disconnected",
		zap.String("channel", h.channel))
}
