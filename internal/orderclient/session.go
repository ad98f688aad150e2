package orderclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/observability"
	"github.com/photoorder/server/internal/services"
)

// Status is the edit session state
type Status string

const (
	StatusIdle     Status = "idle"
	StatusEditing  Status = "editing"
	StatusSaving   Status = "saving"
	StatusSaved    Status = "saved"
	StatusConflict Status = "conflict"
)

// savedDisplayWindow is how long a successful save shows as Saved before
// the session returns to Idle.
const savedDisplayWindow = 2500 * time.Millisecond

// Session is the interactive editing surface for one property's photo
// order: drag reordering, explicit position edits, lock toggles, deletes
// and uploads accumulate locally and commit through the optimistic save.
// Selecting a different property discards unsaved edits.
type Session struct {
	client *Client

	mu         sync.Mutex
	property   *models.Property
	key        string
	items      []models.ImageItem
	version    int
	status     Status
	savedTimer *time.Timer
}

// NewSession creates a session editing the given property
func NewSession(client *Client, property *models.Property) *Session {
	s := &Session{client: client}
	s.SelectProperty(property)
	return s
}

// SelectProperty switches the session to a property, discarding any
// unsaved edits and re-deriving the working list from the cached order
// merged against the property's catalog image set.
func (s *Session) SelectProperty(property *models.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.property = property
	s.key = property.Key()

	saved, version, _ := s.client.Order(s.key)
	s.items = services.MergeSavedOrder(saved, property.Images)
	s.version = version
	s.setStatusLocked(StatusIdle)
}

// Property returns the property being edited
func (s *Session) Property() *models.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.property
}

// Items returns a copy of the working list
func (s *Session) Items() []models.ImageItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ImageItem, len(s.items))
	copy(out, s.items)
	return out
}

// Status returns the current session state
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Move drags the item at from into the slot at to. Unlocked items are
// renumbered to their new sequence; locked items keep their position
// number even when the drag physically relocates them.
func (s *Session) Move(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := services.MoveItem(s.items, from, to)
	if err != nil {
		return err
	}
	s.items = updated
	s.setStatusLocked(StatusEditing)
	return nil
}

// SetPosition assigns an explicit position to one item and re-sorts the
// list ascending. Other items are not renumbered; co-incident values are
// allowed and simply decide sort order.
func (s *Session) SetPosition(index int, pos float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return models.ErrIndexOutOfRange
	}
	s.items[index].Pos = pos
	s.items = services.SortByPos(s.items)
	s.setStatusLocked(StatusEditing)
	return nil
}

// ToggleLock flips one item's lock. No immediate effect on order; it only
// changes how future renumbering passes treat the item.
func (s *Session) ToggleLock(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return models.ErrIndexOutOfRange
	}
	s.items[index].Locked = !s.items[index].Locked
	s.setStatusLocked(StatusEditing)
	return nil
}

// Remove deletes the item at index. The trash call is fire-and-forget:
// its failure is logged and local removal proceeds. The remaining unlocked
// items renumber and the order saves automatically.
func (s *Session) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.items) {
		s.mu.Unlock()
		return models.ErrIndexOutOfRange
	}
	src := s.items[index].Src
	key := s.key

	updated, err := services.RemoveItem(s.items, index)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = updated
	s.mu.Unlock()

	if err := s.client.DeleteImage(ctx, key, src); err != nil {
		observability.GetLogger().Warnf("Trash call for %s failed: %v", src, err)
	}

	return s.Save(ctx)
}

// Upload sends new files to the server, appends the returned images as
// unlocked items with continuing positions, and saves automatically.
func (s *Session) Upload(ctx context.Context, files []UploadFile) error {
	s.mu.Lock()
	key := s.key
	s.mu.Unlock()

	urls, err := s.client.Upload(ctx, key, files)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return nil
	}

	s.mu.Lock()
	base := len(s.items)
	for i, src := range urls {
		s.items = append(s.items, models.ImageItem{Src: src, Pos: float64(base + i + 1)})
	}
	s.mu.Unlock()

	return s.Save(ctx)
}

// Save commits the working list through the optimistic save protocol.
// On conflict the local edits are kept and the session enters Conflict; a
// subsequent Save refreshes the version from the store and re-sends the
// same local list (operator-driven retry). Use Reload to discard instead.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	key := s.key
	items := make([]models.ImageItem, len(s.items))
	copy(items, s.items)
	retrying := s.status == StatusConflict
	version := s.version
	s.setStatusLocked(StatusSaving)
	s.mu.Unlock()

	if retrying {
		if fresh, err := s.client.FetchOrder(ctx, key); err == nil {
			version = fresh.Version
		}
	}

	newVersion, err := s.client.SaveOrder(ctx, key, items, version)
	if errors.Is(err, models.ErrVersionConflict) {
		s.mu.Lock()
		s.setStatusLocked(StatusConflict)
		s.mu.Unlock()
		return err
	}
	if err != nil {
		// Transport failure: back to an editable state, operator retries
		s.mu.Lock()
		s.setStatusLocked(StatusEditing)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.version = newVersion
	s.setStatusLocked(StatusSaved)
	s.savedTimer = time.AfterFunc(savedDisplayWindow, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.status == StatusSaved {
			s.status = StatusIdle
		}
	})
	s.mu.Unlock()
	return nil
}

// Reload discards local edits and re-derives the working list from the
// store's current state.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	key := s.key
	property := s.property
	s.mu.Unlock()

	fresh, err := s.client.FetchOrder(ctx, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = services.MergeSavedOrder(fresh.Images, property.Images)
	s.version = fresh.Version
	s.setStatusLocked(StatusIdle)
	return nil
}

// setStatusLocked transitions state and cancels a pending Saved->Idle
// timer. Callers hold s.mu.
func (s *Session) setStatusLocked(status Status) {
	if s.savedTimer != nil {
		s.savedTimer.Stop()
		s.savedTimer = nil
	}
	s.status = status
}
