package services

import (
	"sort"

	"github.com/photoorder/server/internal/models"
)

// MergeSavedOrder reconciles a saved order with the catalog's current image
// set. Still-present saved items keep their exact relative order, position
// and lock state; entries for removed files are dropped; newly discovered
// images are appended in catalog order as unlocked items with positions
// continuing after the kept items. Pure and idempotent.
func MergeSavedOrder(saved []models.ImageItem, currentIDs []string) []models.ImageItem {
	currentSet := make(map[string]bool, len(currentIDs))
	for _, src := range currentIDs {
		currentSet[src] = true
	}

	kept := make([]models.ImageItem, 0, len(saved))
	keptSrcs := make(map[string]bool, len(saved))
	for _, item := range saved {
		if currentSet[item.Src] && !keptSrcs[item.Src] {
			kept = append(kept, item)
			keptSrcs[item.Src] = true
		}
	}

	merged := kept
	next := len(kept) + 1
	for _, src := range currentIDs {
		if keptSrcs[src] {
			continue
		}
		merged = append(merged, models.ImageItem{Src: src, Pos: float64(next)})
		keptSrcs[src] = true
		next++
	}
	return merged
}

// RenumberUnlocked assigns sequential 1-based positions to unlocked items
// by their list placement. Locked items keep their position value; they
// still occupy a slot, so the sequence runs over the whole list. Returns a
// new slice, input is untouched.
func RenumberUnlocked(items []models.ImageItem) []models.ImageItem {
	out := make([]models.ImageItem, len(items))
	for i, item := range items {
		out[i] = item
		if !item.Locked {
			out[i].Pos = float64(i + 1)
		}
	}
	return out
}

// SortByPos returns the items stably sorted ascending by position.
// Co-incident positions keep their current relative order.
func SortByPos(items []models.ImageItem) []models.ImageItem {
	out := make([]models.ImageItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos < out[j].Pos
	})
	return out
}

// MoveItem splices the item at from into the slot at to and renumbers the
// unlocked items. The moved item may be relocated past locked items; a lock
// protects the position number, not the slot.
func MoveItem(items []models.ImageItem, from, to int) ([]models.ImageItem, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, models.ErrIndexOutOfRange
	}
	if items[from].Locked {
		return nil, models.ErrItemLocked
	}
	if from == to {
		return RenumberUnlocked(items), nil
	}

	out := make([]models.ImageItem, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	moved := items[from]
	out = append(out[:to], append([]models.ImageItem{moved}, out[to:]...)...)
	return RenumberUnlocked(out), nil
}

// RemoveItem drops the item at index and renumbers the unlocked remainder.
func RemoveItem(items []models.ImageItem, index int) ([]models.ImageItem, error) {
	if index < 0 || index >= len(items) {
		return nil, models.ErrIndexOutOfRange
	}
	out := make([]models.ImageItem, 0, len(items)-1)
	out = append(out, items[:index]...)
	out = append(out, items[index+1:]...)
	return RenumberUnlocked(out), nil
}
