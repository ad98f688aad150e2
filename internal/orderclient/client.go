// Package orderclient is the client side of the photo ordering system: a
// polling cache over the order store, a listener for the low-latency sync
// channel, and the interactive edit session used by admin tooling.
package orderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/observability"
)

// DefaultPollInterval matches the server's reference poll cadence.
const DefaultPollInterval = 3 * time.Second

// Client is the in-memory source of truth for what order each property's
// photos are believed to be in. It converges on the store via polling and,
// when a Listener is attached, via sync-channel broadcasts. All display
// reads go through GetOrderedImages/GetHeroImage so the catalog fallback
// is applied uniformly.
type Client struct {
	baseURL    string
	adminKey   string
	httpClient *http.Client
	interval   time.Duration

	mu           sync.RWMutex
	orders       map[string][]models.ImageItem
	versions     map[string]int
	fingerprint  string
	savesPending int
	subscribers  []func()
}

// Option configures a Client
type Option func(*Client)

// WithPollInterval overrides the poll cadence
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithAdminKey attaches the admin key header to mutating calls
// (save, upload, delete)
func WithAdminKey(key string) Option {
	return func(c *Client) { c.adminKey = key }
}

// WithHTTPClient overrides the transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the order store at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		interval:   DefaultPollInterval,
		orders:     make(map[string][]models.ImageItem),
		versions:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers a callback invoked after every cache change
func (c *Client) Subscribe(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Run polls the store until ctx is done. An immediate fetch happens first
// so consumers have data before the first tick.
func (c *Client) Run(ctx context.Context) {
	log := observability.GetLogger()
	if err := c.RefreshNow(ctx); err != nil {
		log.Warnf("Initial order fetch failed: %v", err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.RefreshNow(ctx); err != nil {
				log.Debugf("Order poll failed: %v", err)
			}
		}
	}
}

// RefreshNow fetches the full order map immediately, bypassing the poll
// interval. A response identical to the last one (by serialized snapshot)
// is discarded without notifying consumers. While a save is in flight the
// snapshot is also discarded, so a stale poll cannot clobber the
// optimistic local apply.
func (c *Client) RefreshNow(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/photo-order?property=_all", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch orders: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}

	var payload models.OrdersResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}

	c.mu.Lock()
	if c.savesPending > 0 {
		c.mu.Unlock()
		return nil
	}
	snapshot := string(body)
	if snapshot == c.fingerprint {
		c.mu.Unlock()
		return nil
	}
	c.fingerprint = snapshot
	c.orders = payload.Orders
	if c.orders == nil {
		c.orders = make(map[string][]models.ImageItem)
	}
	if payload.Versions != nil {
		c.versions = payload.Versions
	}
	subs := append([]func(){}, c.subscribers...)
	c.mu.Unlock()

	notify(subs)
	return nil
}

// Properties fetches the server's property catalog
func (c *Client) Properties(ctx context.Context) ([]*models.Property, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/properties", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch properties: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch properties: unexpected status %d", resp.StatusCode)
	}

	var payload models.PropertiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch properties: %w", err)
	}
	return payload.Properties, nil
}

// Order returns the cached order and version for a property key
func (c *Client) Order(propertyKey string) ([]models.ImageItem, int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, ok := c.orders[propertyKey]
	if !ok {
		return nil, c.versions[propertyKey], false
	}
	out := make([]models.ImageItem, len(items))
	copy(out, items)
	return out, c.versions[propertyKey], true
}

// GetOrderedImages returns the property's image srcs in saved order, or
// the catalog sequence unmodified when no non-empty saved order exists.
func (c *Client) GetOrderedImages(property *models.Property) []string {
	items, _, ok := c.Order(property.Key())
	if ok && len(items) > 0 {
		return models.Srcs(items)
	}
	out := make([]string, len(property.Images))
	copy(out, property.Images)
	return out
}

// GetHeroImage returns the first ordered image, or the property's primary
// image when nothing is available.
func (c *Client) GetHeroImage(property *models.Property) string {
	images := c.GetOrderedImages(property)
	if len(images) > 0 {
		return images[0]
	}
	return property.Image
}

// SaveOrder commits an order with optimistic concurrency. The local cache
// is updated before the network call so the UI feels instant; on conflict
// or transport failure the optimistic state is intentionally left in place
// and the store remains the durable authority.
func (c *Client) SaveOrder(ctx context.Context, propertyKey string, images []models.ImageItem, expectedVersion int) (int, error) {
	c.applyLocal(propertyKey, images)

	c.mu.Lock()
	c.savesPending++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.savesPending--
		c.mu.Unlock()
	}()

	reqBody, err := json.Marshal(models.SaveOrderRequest{
		Property: propertyKey,
		Images:   images,
		Version:  &expectedVersion,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/photo-order", bytes.NewReader(reqBody))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAdminKey(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("save order: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return 0, models.ErrVersionConflict
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("save order: unexpected status %d", resp.StatusCode)
	}

	var result models.SaveOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("save order: %w", err)
	}

	c.mu.Lock()
	c.versions[propertyKey] = result.Version
	c.mu.Unlock()

	return result.Version, nil
}

// FetchOrder fetches one property's saved order directly from the store,
// bypassing the cache. Used to refresh a stale version before a retry.
func (c *Client) FetchOrder(ctx context.Context, propertyKey string) (*models.VersionedOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/photo-order?property="+url.QueryEscape(propertyKey), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch order: unexpected status %d", resp.StatusCode)
	}

	var payload models.OrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch order: %w", err)
	}

	c.mu.Lock()
	if payload.Images != nil {
		c.orders[propertyKey] = payload.Images
	}
	c.versions[propertyKey] = payload.Version
	c.mu.Unlock()

	return &models.VersionedOrder{Images: payload.Images, Version: payload.Version}, nil
}

// DeleteImage asks the server to move one image into the trash. Callers
// treat this as fire-and-forget; local removal proceeds regardless.
func (c *Client) DeleteImage(ctx context.Context, propertyKey, src string) error {
	reqBody, err := json.Marshal(models.DeleteRequest{Property: propertyKey, Src: src})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/admin/delete", bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAdminKey(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete image: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// UploadFile is one file submitted to Upload
type UploadFile struct {
	Name   string
	Reader io.Reader
}

// Upload sends new photos to the server and returns their assigned srcs in
// submission order.
func (c *Client) Upload(ctx context.Context, propertyKey string, files []UploadFile) ([]string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("property", propertyKey); err != nil {
		return nil, err
	}
	for _, f := range files {
		part, err := writer.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/admin/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAdminKey(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload: unexpected status %d", resp.StatusCode)
	}

	var result models.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	return result.URLs, nil
}

// applyLocal overwrites the cached order for one key and notifies
func (c *Client) applyLocal(propertyKey string, images []models.ImageItem) {
	c.mu.Lock()
	items := make([]models.ImageItem, len(images))
	copy(items, images)
	c.orders[propertyKey] = items
	subs := append([]func(){}, c.subscribers...)
	c.mu.Unlock()

	notify(subs)
}

// applyRemote is the sync-channel entry point: it overwrites the cached
// order unconditionally (last-writer-wins hint; the store's version check
// is the conflict authority).
func (c *Client) applyRemote(propertyKey string, images []models.ImageItem, version int) {
	c.mu.Lock()
	c.orders[propertyKey] = images
	if version > 0 {
		c.versions[propertyKey] = version
	}
	subs := append([]func(){}, c.subscribers...)
	c.mu.Unlock()

	notify(subs)
}

func (c *Client) setAdminKey(req *http.Request) {
	if c.adminKey != "" {
		req.Header.Set("X-Admin-Key", c.adminKey)
	}
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
