package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/observability"
)

// Message types
const (
	SyncTypeOrderUpdated = "order_updated"
	SyncTypeSubscribe    = "subscribe"
	SyncTypeUnsubscribe  = "unsubscribe"
	SyncTypePing         = "ping"
	SyncTypePong         = "pong"
	SyncTypeError        = "error"
)

// TopicOrders is the firehose topic carrying every accepted save.
// Per-property topics use OrderTopic.
const TopicOrders = "photo-order"

// OrderTopic returns the per-property topic name
func OrderTopic(propertyKey string) string {
	return TopicOrders + ":" + propertyKey
}

// SyncMessage is the wire format on the sync channel
type SyncMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// OrderUpdatedPayload announces an accepted save to listeners. Listeners
// overwrite their cached order for the property unconditionally; the
// store's version check remains the conflict authority.
type OrderUpdatedPayload struct {
	Property string             `json:"property"`
	Images   []models.ImageItem `json:"images"`
	Version  int                `json:"version"`
}

// SyncClient is one connected listener
type SyncClient struct {
	ID         string
	Topics     map[string]bool
	Conn       *websocket.Conn
	Send       chan []byte
	hub        *SyncHub
	mu         sync.Mutex
	closedOnce sync.Once
}

// SyncHub fans accepted saves out to connected listeners. It is a
// low-latency hint channel only: a hub failure must never fail a save, so
// every publish path is non-blocking and best effort.
type SyncHub struct {
	clients    map[*SyncClient]bool
	topics     map[string]map[*SyncClient]bool
	register   chan *SyncClient
	unregister chan *SyncClient
	broadcast  chan *broadcastMsg
	metrics    *observability.OrderMetrics
	mu         sync.RWMutex
}

type broadcastMsg struct {
	topic   string
	message []byte
}

// NewSyncHub creates a new SyncHub
func NewSyncHub() *SyncHub {
	return &SyncHub{
		clients:    make(map[*SyncClient]bool),
		topics:     make(map[string]map[*SyncClient]bool),
		register:   make(chan *SyncClient),
		unregister: make(chan *SyncClient),
		broadcast:  make(chan *broadcastMsg, 256),
	}
}

// SetMetrics attaches broadcast metrics. Optional; nil is fine.
func (h *SyncHub) SetMetrics(m *observability.OrderMetrics) {
	h.metrics = m
}

// Run starts the hub's main loop
func (h *SyncHub) Run() {
	log := observability.GetLogger()
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Debugf("Sync client connected: %s", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for topic := range client.Topics {
					if topicClients, ok := h.topics[topic]; ok {
						delete(topicClients, client)
						if len(topicClients) == 0 {
							delete(h.topics, topic)
						}
					}
				}
				close(client.Send)
			}
			h.mu.Unlock()
			log.Debugf("Sync client disconnected: %s", client.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var targets map[*SyncClient]bool
			if msg.topic != "" {
				targets = h.topics[msg.topic]
			} else {
				targets = h.clients
			}

			for client := range targets {
				select {
				case client.Send <- msg.message:
				default:
					// Buffer full, drop the client
					go func(c *SyncClient) {
						h.unregister <- c
					}(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *SyncHub) Register(client *SyncClient) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *SyncHub) Unregister(client *SyncClient) {
	h.unregister <- client
}

// Subscribe adds a client to a topic
func (h *SyncHub) Subscribe(client *SyncClient, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.Topics[topic] = true
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*SyncClient]bool)
	}
	h.topics[topic][client] = true
}

// Unsubscribe removes a client from a topic
func (h *SyncHub) Unsubscribe(client *SyncClient, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.Topics, topic)
	if topicClients, ok := h.topics[topic]; ok {
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.topics, topic)
		}
	}
}

// PublishOrderUpdate announces an accepted save on the property's topic and
// the firehose topic. Best effort: marshal or delivery failures are logged
// and swallowed.
func (h *SyncHub) PublishOrderUpdate(propertyKey string, images []models.ImageItem, version int) {
	msg := SyncMessage{
		Type: SyncTypeOrderUpdated,
		Payload: OrderUpdatedPayload{
			Property: propertyKey,
			Images:   images,
			Version:  version,
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		observability.GetLogger().Errorf("Marshaling sync message: %v", err)
		return
	}
	h.metrics.RecordBroadcast(context.Background(), len(data))

	for _, topic := range []string{OrderTopic(propertyKey), TopicOrders} {
		select {
		case h.broadcast <- &broadcastMsg{topic: topic, message: data}:
		default:
			observability.GetLogger().Warn("Sync broadcast queue full, dropping update")
		}
	}
}

// SubscriberCount returns the number of subscribers for a topic
func (h *SyncHub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.topics[topic]; ok {
		return len(clients)
	}
	return 0
}

// NewClient creates a new sync client connected to this hub
func (h *SyncHub) NewClient(id string, conn *websocket.Conn) *SyncClient {
	return &SyncClient{
		ID:     id,
		Topics: make(map[string]bool),
		Conn:   conn,
		Send:   make(chan []byte, 256),
		hub:    h,
	}
}

// Close closes the client connection
func (c *SyncClient) Close() {
	c.closedOnce.Do(func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	})
}

// WritePump pumps messages from the hub to the websocket connection
func (c *SyncClient) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.mu.Lock()
			err := c.Conn.WriteMessage(websocket.TextMessage, message)
			c.mu.Unlock()

			if err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump pumps messages from the websocket connection to the hub
func (c *SyncClient) ReadPump(onMessage func(client *SyncClient, messageType int, data []byte)) {
	defer c.Close()

	c.Conn.SetReadLimit(512 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				observability.GetLogger().Warnf("Sync socket error: %v", err)
			}
			break
		}

		if onMessage != nil {
			onMessage(c, messageType, message)
		}
	}
}
