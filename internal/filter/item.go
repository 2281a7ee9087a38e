package filter

import (
	"path/filepath"
	"strings"

	"github.com/dyluth/corkboard/pkg/board"
)

// Criteria defines filtering criteria for board items.
// All filters are ANDed together - an item must match ALL criteria to pass.
type Criteria struct {
	TypeGlob    string // Glob pattern for item type ("note", "c*"), empty = no filter
	ContainerID string // Items inside this container, empty = no filter
	Text        string // Case-insensitive substring of the item text, empty = no filter
	LockedBy    string // Items locked by this user, empty = no filter
}

// Matches returns true if the item matches all filter criteria.
// Container references are resolved through b, so an item pointing at a
// container that is not on the board is never "inside" it.
func (c *Criteria) Matches(b *board.Board, locks board.ItemLocks, item board.Item) bool {
	if c.TypeGlob != "" {
		matched, err := filepath.Match(c.TypeGlob, string(item.Type()))
		if err != nil || !matched {
			return false
		}
	}

	if c.ContainerID != "" {
		container, ok := b.ContainerOf(item)
		if !ok || container.ID != c.ContainerID {
			return false
		}
	}

	if c.Text != "" && !strings.Contains(strings.ToLower(TextOf(item)), strings.ToLower(c.Text)) {
		return false
	}

	if c.LockedBy != "" && locks[item.ItemID()] != c.LockedBy {
		return false
	}

	return true
}

// Apply returns the items of b that match, in board order.
func (c *Criteria) Apply(b *board.Board, locks board.ItemLocks) []board.Item {
	if !c.HasFilters() {
		return b.Items
	}
	var out []board.Item
	for _, it := range b.Items {
		if c.Matches(b, locks, it) {
			out = append(out, it)
		}
	}
	return out
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.TypeGlob != "" ||
		c.ContainerID != "" ||
		c.Text != "" ||
		c.LockedBy != ""
}

// TextOf returns the text an item displays. Images have none.
func TextOf(item board.Item) string {
	switch it := item.(type) {
	case board.Note:
		return it.Text
	case board.Text:
		return it.Text
	case board.Container:
		return it.Text
	default:
		return ""
	}
}
