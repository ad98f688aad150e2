package orderclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photoorder/server/internal/handlers"
	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/services"
)

// startSyncServer serves the sync channel over a real websocket and returns
// the hub for publishing alongside a client pointed at the server.
func startSyncServer(t *testing.T) (*services.SyncHub, *Client) {
	hub := services.NewSyncHub()
	go hub.Run()

	wsHandler := handlers.NewWebSocketHandler(hub)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", wsHandler.HandleConnection)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return hub, NewClient(srv.URL)
}

func startListener(t *testing.T, hub *services.SyncHub, client *Client) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	listener := NewListener(client)
	go listener.Run(ctx)

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(services.TopicOrders) == 1
	}, 2*time.Second, 10*time.Millisecond, "listener never subscribed")
}

func TestListener_OrderUpdates(t *testing.T) {
	t.Run("published update lands in the cache", func(t *testing.T) {
		hub, client := startSyncServer(t)

		updates := make(chan struct{}, 16)
		client.Subscribe(func() { updates <- struct{}{} })

		startListener(t, hub, client)
		hub.PublishOrderUpdate("milan-manor", []models.ImageItem{
			{Src: "b.jpg", Pos: 1},
			{Src: "a.jpg", Pos: 2},
		}, 7)

		select {
		case <-updates:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for the sync update")
		}

		items, version, ok := client.Order("milan-manor")
		require.True(t, ok)
		assert.Equal(t, []string{"b.jpg", "a.jpg"}, models.Srcs(items))
		assert.Equal(t, 7, version)
	})

	t.Run("update overwrites an earlier snapshot", func(t *testing.T) {
		hub, client := startSyncServer(t)
		client.applyRemote("milan-manor", []models.ImageItem{{Src: "old.jpg", Pos: 1}}, 3)

		startListener(t, hub, client)
		hub.PublishOrderUpdate("milan-manor",
			[]models.ImageItem{{Src: "new.jpg", Pos: 1}}, 4)

		// The cache takes whatever the channel delivers; the store's version
		// check is the conflict authority, not the listener.
		require.Eventually(t, func() bool {
			items, _, _ := client.Order("milan-manor")
			return len(items) == 1 && items[0].Src == "new.jpg"
		}, 2*time.Second, 10*time.Millisecond)

		_, version, _ := client.Order("milan-manor")
		assert.Equal(t, 4, version)
	})
}

func TestListener_HandleMessage(t *testing.T) {
	t.Run("non-order messages leave the cache alone", func(t *testing.T) {
		client := NewClient("http://unused")
		listener := NewListener(client)

		listener.handleMessage([]byte(`{"type":"pong"}`))
		listener.handleMessage([]byte(`not json`))
		listener.handleMessage([]byte(`{"type":"order_updated","payload":{"property":""}}`))

		_, _, ok := client.Order("milan-manor")
		assert.False(t, ok)
	})

	t.Run("order update applies without a connection", func(t *testing.T) {
		client := NewClient("http://unused")
		listener := NewListener(client)

		listener.handleMessage([]byte(
			`{"type":"order_updated","payload":{"property":"milan-manor","images":[{"src":"a.jpg","pos":1}],"version":2}}`))

		items, version, ok := client.Order("milan-manor")
		require.True(t, ok)
		assert.Equal(t, []string{"a.jpg"}, models.Srcs(items))
		assert.Equal(t, 2, version)
	})
}
