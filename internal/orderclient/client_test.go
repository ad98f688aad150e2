package orderclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photoorder/server/internal/models"
)

// fakeStore is an in-memory stand-in for the order server. When adminKey is
// set, the mutating routes reject requests without a matching X-Admin-Key,
// mirroring the server's guard.
type fakeStore struct {
	mu       sync.Mutex
	orders   map[string][]models.ImageItem
	versions map[string]int
	deletes  []models.DeleteRequest
	adminKey string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   make(map[string][]models.ImageItem),
		versions: make(map[string]int),
	}
}

func (s *fakeStore) requireAdminKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		key := s.adminKey
		s.mu.Unlock()
		if key != "" && r.Header.Get("X-Admin-Key") != key {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(models.ErrorResponse{Error: "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *fakeStore) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/photo-order", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		property := r.URL.Query().Get("property")
		if property == "_all" {
			json.NewEncoder(w).Encode(models.OrdersResponse{Orders: s.orders, Versions: s.versions})
			return
		}
		json.NewEncoder(w).Encode(models.OrderResponse{
			Images:  s.orders[property],
			Version: s.versions[property],
		})
	})

	mux.HandleFunc("POST /api/photo-order", s.requireAdminKey(func(w http.ResponseWriter, r *http.Request) {
		var req models.SaveOrderRequest
		json.NewDecoder(r.Body).Decode(&req)

		s.mu.Lock()
		defer s.mu.Unlock()
		if req.Version == nil || *req.Version != s.versions[req.Property] {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(models.ErrorResponse{Error: "conflict"})
			return
		}
		s.orders[req.Property] = req.Images
		s.versions[req.Property]++
		json.NewEncoder(w).Encode(models.SaveOrderResponse{OK: true, Version: s.versions[req.Property]})
	}))

	mux.HandleFunc("POST /api/admin/delete", s.requireAdminKey(func(w http.ResponseWriter, r *http.Request) {
		var req models.DeleteRequest
		json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		s.deletes = append(s.deletes, req)
		s.mu.Unlock()
		json.NewEncoder(w).Encode(models.TrashListResponse{})
	}))

	mux.HandleFunc("POST /api/admin/upload", s.requireAdminKey(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(32 << 20)
		property := r.FormValue("property")
		var urls []string
		for _, header := range r.MultipartForm.File["files"] {
			urls = append(urls, "/media/"+property+"/"+header.Filename)
		}
		json.NewEncoder(w).Encode(models.UploadResponse{OK: true, URLs: urls})
	}))

	mux.HandleFunc("GET /api/properties", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.PropertiesResponse{
			Properties: []*models.Property{
				{ID: "milan-manor", Name: "Milan Manor", Images: []string{"a.jpg", "b.jpg", "c.jpg"}},
			},
		})
	})

	return mux
}

func (s *fakeStore) set(key string, version int, items ...models.ImageItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[key] = items
	s.versions[key] = version
}

func newTestClient(t *testing.T, store *fakeStore, opts ...Option) *Client {
	srv := httptest.NewServer(store.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, opts...)
}

func TestClient_RefreshNow(t *testing.T) {
	ctx := context.Background()

	t.Run("populates the cache", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 3, models.ImageItem{Src: "b.jpg", Pos: 1}, models.ImageItem{Src: "a.jpg", Pos: 2})
		client := newTestClient(t, store)

		require.NoError(t, client.RefreshNow(ctx))

		items, version, ok := client.Order("milan-manor")
		require.True(t, ok)
		assert.Equal(t, 3, version)
		assert.Equal(t, []string{"b.jpg", "a.jpg"}, models.Srcs(items))
	})

	t.Run("identical snapshot does not notify again", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 1, models.ImageItem{Src: "a.jpg", Pos: 1})
		client := newTestClient(t, store)

		var notifications int
		client.Subscribe(func() { notifications++ })

		require.NoError(t, client.RefreshNow(ctx))
		require.NoError(t, client.RefreshNow(ctx))
		assert.Equal(t, 1, notifications)

		store.set("milan-manor", 2, models.ImageItem{Src: "b.jpg", Pos: 1})
		require.NoError(t, client.RefreshNow(ctx))
		assert.Equal(t, 2, notifications)
	})
}

func TestClient_GetOrderedImages(t *testing.T) {
	ctx := context.Background()
	property := &models.Property{
		ID:     "milan-manor",
		Name:   "Milan Manor",
		Image:  "a.jpg",
		Images: []string{"a.jpg", "b.jpg", "c.jpg"},
	}

	t.Run("falls back to catalog order when nothing saved", func(t *testing.T) {
		client := newTestClient(t, newFakeStore())
		require.NoError(t, client.RefreshNow(ctx))

		assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, client.GetOrderedImages(property))
		assert.Equal(t, "a.jpg", client.GetHeroImage(property))
	})

	t.Run("empty saved order also falls back", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 1)
		client := newTestClient(t, store)
		require.NoError(t, client.RefreshNow(ctx))

		assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, client.GetOrderedImages(property))
	})

	t.Run("saved order wins", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 1,
			models.ImageItem{Src: "c.jpg", Pos: 1},
			models.ImageItem{Src: "a.jpg", Pos: 2})
		client := newTestClient(t, store)
		require.NoError(t, client.RefreshNow(ctx))

		assert.Equal(t, []string{"c.jpg", "a.jpg"}, client.GetOrderedImages(property))
		assert.Equal(t, "c.jpg", client.GetHeroImage(property))
	})
}

func TestClient_SaveOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("successful save updates the tracked version", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 2, models.ImageItem{Src: "a.jpg", Pos: 1})
		client := newTestClient(t, store)

		version, err := client.SaveOrder(ctx, "milan-manor",
			[]models.ImageItem{{Src: "b.jpg", Pos: 1}}, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, version)

		_, cached, _ := client.Order("milan-manor")
		assert.Equal(t, 3, cached)
	})

	t.Run("stale version surfaces a conflict and keeps optimistic state", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 5, models.ImageItem{Src: "a.jpg", Pos: 1})
		client := newTestClient(t, store)

		_, err := client.SaveOrder(ctx, "milan-manor",
			[]models.ImageItem{{Src: "b.jpg", Pos: 1}}, 4)
		assert.ErrorIs(t, err, models.ErrVersionConflict)

		// The optimistic apply stays; the operator resolves via retry or reload
		items, _, ok := client.Order("milan-manor")
		require.True(t, ok)
		assert.Equal(t, []string{"b.jpg"}, models.Srcs(items))
	})

	t.Run("sends the admin key on the guarded save route", func(t *testing.T) {
		store := newFakeStore()
		store.adminKey = "secret"
		store.set("milan-manor", 1, models.ImageItem{Src: "a.jpg", Pos: 1})
		client := newTestClient(t, store, WithAdminKey("secret"))

		version, err := client.SaveOrder(ctx, "milan-manor",
			[]models.ImageItem{{Src: "b.jpg", Pos: 1}}, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, version)
	})

	t.Run("missing admin key is rejected by the guard", func(t *testing.T) {
		store := newFakeStore()
		store.adminKey = "secret"
		store.set("milan-manor", 1, models.ImageItem{Src: "a.jpg", Pos: 1})
		client := newTestClient(t, store)

		_, err := client.SaveOrder(ctx, "milan-manor",
			[]models.ImageItem{{Src: "b.jpg", Pos: 1}}, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("applies locally before the network call", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 1)
		client := newTestClient(t, store)

		var sawLocal bool
		client.Subscribe(func() {
			items, _, _ := client.Order("milan-manor")
			if len(items) == 1 && items[0].Src == "x.jpg" {
				sawLocal = true
			}
		})

		_, err := client.SaveOrder(ctx, "milan-manor",
			[]models.ImageItem{{Src: "x.jpg", Pos: 1}}, 1)
		require.NoError(t, err)
		assert.True(t, sawLocal)
	})
}

func TestClient_FetchOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches one property and refreshes the cache", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 4, models.ImageItem{Src: "a.jpg", Pos: 1})
		client := newTestClient(t, store)

		order, err := client.FetchOrder(ctx, "milan-manor")
		require.NoError(t, err)
		assert.Equal(t, 4, order.Version)

		_, version, ok := client.Order("milan-manor")
		assert.True(t, ok)
		assert.Equal(t, 4, version)
	})
}

func TestClient_Properties(t *testing.T) {
	client := newTestClient(t, newFakeStore())

	properties, err := client.Properties(context.Background())
	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, "milan-manor", properties[0].Key())
}
