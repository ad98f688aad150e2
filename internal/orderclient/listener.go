package orderclient

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/observability"
	"github.com/photoorder/server/internal/services"
)

// Listener subscribes to the server's sync channel and feeds accepted
// saves straight into the client cache, so other viewers converge without
// waiting for the next poll. It is a hint channel: any failure here only
// delays convergence to the poll interval, it never affects saves.
type Listener struct {
	client *Client
	wsURL  string
}

// NewListener creates a listener for the client's server
func NewListener(client *Client) *Listener {
	wsURL := strings.Replace(client.baseURL, "http", "ws", 1) + "/ws"
	return &Listener{client: client, wsURL: wsURL}
}

// Run connects and listens until ctx is done, reconnecting with a fixed
// backoff on any failure.
func (l *Listener) Run(ctx context.Context) {
	log := observability.GetLogger()
	backoff := 2 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			log.Debugf("Sync listener disconnected: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, l.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Close the socket when ctx ends so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	sub := services.SyncMessage{
		Type:    services.SyncTypeSubscribe,
		Payload: services.TopicOrders,
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		l.handleMessage(data)
	}
}

func (l *Listener) handleMessage(data []byte) {
	var envelope struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		observability.GetLogger().Debugf("Invalid sync message: %v", err)
		return
	}

	if envelope.Type != services.SyncTypeOrderUpdated {
		return
	}

	var payload struct {
		Property string             `json:"property"`
		Images   []models.ImageItem `json:"images"`
		Version  int                `json:"version"`
	}
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		observability.GetLogger().Debugf("Invalid order update payload: %v", err)
		return
	}
	if payload.Property == "" {
		return
	}

	l.client.applyRemote(payload.Property, payload.Images, payload.Version)
}
