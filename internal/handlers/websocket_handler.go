package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/photoorder/server/internal/observability"
	"github.com/photoorder/server/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now - can be restricted in production
		return true
	},
}

// WebSocketHandler handles the sync channel connections
type WebSocketHandler struct {
	hub *services.SyncHub
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *services.SyncHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleConnection upgrades HTTP to WebSocket and manages the connection.
// Clients start with no subscriptions; they pick topics with subscribe
// messages (the firehose topic, or per-property topics).
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.GetLogger().Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	clientID := uuid.New().String()
	client := h.hub.NewClient(clientID, conn)

	h.hub.Register(client)

	// Start the write pump in a goroutine
	go client.WritePump()

	// Run the read pump (blocks until connection closes)
	client.ReadPump(h.handleMessage)
}

// handleMessage processes incoming sync channel messages
func (h *WebSocketHandler) handleMessage(client *services.SyncClient, messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var msg services.SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		observability.GetLogger().Warnf("Invalid sync message: %v", err)
		return
	}

	switch msg.Type {
	case services.SyncTypeSubscribe:
		if topic := topicFromPayload(msg.Payload); topic != "" {
			h.hub.Subscribe(client, topic)
		}

	case services.SyncTypeUnsubscribe:
		if topic := topicFromPayload(msg.Payload); topic != "" {
			h.hub.Unsubscribe(client, topic)
		}

	case services.SyncTypePing:
		response := services.SyncMessage{Type: services.SyncTypePong}
		if data, err := json.Marshal(response); err == nil {
			client.Send <- data
		}

	default:
		observability.GetLogger().Debugf("Unknown sync message type: %s", msg.Type)
	}
}

// topicFromPayload accepts both a bare string payload and {"topic": "..."}
func topicFromPayload(payload interface{}) string {
	if topic, ok := payload.(string); ok {
		return topic
	}
	if obj, ok := payload.(map[string]interface{}); ok {
		if topic, ok := obj["topic"].(string); ok {
			return topic
		}
	}
	return ""
}
