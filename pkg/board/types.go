package board

import (
	"fmt"

	"github.com/google/uuid"
)

// Board is the whiteboard document: dimensions plus an ordered collection of items.
// Item order is z-order (last item is topmost).
//
// Boards are immutable values. The reducer never modifies a Board or its Items slice;
// every change produces a new *Board, so pointer identity tells callers whether
// anything changed.
type Board struct {
	ID     string
	Name   string
	Width  float64
	Height float64
	Items  []Item
}

// Default dimensions for new boards and for legacy documents lacking them.
const (
	DefaultBoardWidth  = 100
	DefaultBoardHeight = 80
)

// ItemType is the discriminant of the Item union.
type ItemType string

const (
	// ItemTypeNote is a coloured sticky note
	ItemTypeNote ItemType = "note"

	// ItemTypeText is free-standing text
	ItemTypeText ItemType = "text"

	// ItemTypeImage is an uploaded image referenced by asset id
	ItemTypeImage ItemType = "image"

	// ItemTypeContainer is an area that groups other items by back-reference
	ItemTypeContainer ItemType = "container"
)

// Validate checks if the ItemType is a valid enum value.
func (t ItemType) Validate() error {
	switch t {
	case ItemTypeNote, ItemTypeText, ItemTypeImage, ItemTypeContainer:
		return nil
	default:
		return fmt.Errorf("unknown item type: %q", t)
	}
}

// Bounds is the placement of an item on the board.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Item is a placed object on the board. The set of implementations is closed:
// Note, Text, Image and Container.
type Item interface {
	ItemID() string
	Type() ItemType
	ItemBounds() Bounds

	withBounds(Bounds) Item
}

// Containee is an item that may sit inside a Container (Note, Text, Image).
// ContainerID is a weak reference: an empty string means "not contained".
type Containee interface {
	Item
	Container() string

	withContainer(containerID string) Item
}

// Note is a coloured sticky note.
type Note struct {
	ID string
	Bounds
	Text        string
	Color       string
	ContainerID string
}

// Text is free-standing text.
type Text struct {
	ID string
	Bounds
	Text        string
	ContainerID string
}

// Image references an uploaded asset. Src is an optional resolved URL.
type Image struct {
	ID string
	Bounds
	AssetID     string
	Src         string
	ContainerID string
}

// Container is an area that groups other items. It never owns them: contained
// items point at it via their ContainerID.
type Container struct {
	ID string
	Bounds
	Text string
}

func (n Note) ItemID() string      { return n.ID }
func (n Note) Type() ItemType      { return ItemTypeNote }
func (n Note) ItemBounds() Bounds  { return n.Bounds }
func (n Note) Container() string   { return n.ContainerID }
func (t Text) ItemID() string      { return t.ID }
func (t Text) Type() ItemType      { return ItemTypeText }
func (t Text) ItemBounds() Bounds  { return t.Bounds }
func (t Text) Container() string   { return t.ContainerID }
func (i Image) ItemID() string     { return i.ID }
func (i Image) Type() ItemType     { return ItemTypeImage }
func (i Image) ItemBounds() Bounds { return i.Bounds }
func (i Image) Container() string  { return i.ContainerID }

func (c Container) ItemID() string     { return c.ID }
func (c Container) Type() ItemType     { return ItemTypeContainer }
func (c Container) ItemBounds() Bounds { return c.Bounds }

func (n Note) withBounds(b Bounds) Item      { n.Bounds = b; return n }
func (t Text) withBounds(b Bounds) Item      { t.Bounds = b; return t }
func (i Image) withBounds(b Bounds) Item     { i.Bounds = b; return i }
func (c Container) withBounds(b Bounds) Item { c.Bounds = b; return c }

func (n Note) withContainer(id string) Item  { n.ContainerID = id; return n }
func (t Text) withContainer(id string) Item  { t.ContainerID = id; return t }
func (i Image) withContainer(id string) Item { i.ContainerID = id; return i }

// ItemLocks maps item id to the id of the user holding its edit lock.
// Treated as immutable: ReduceLocks returns a new map whenever it changes.
type ItemLocks map[string]string

// Equal reports whether both tables hold the same locks. A nil table equals
// an empty one.
func (l ItemLocks) Equal(other ItemLocks) bool {
	if len(l) != len(other) {
		return false
	}
	for id, user := range l {
		if holder, ok := other[id]; !ok || holder != user {
			return false
		}
	}
	return true
}

// Find returns the item with the given id.
func (b *Board) Find(id string) (Item, bool) {
	if i := b.indexOf(id); i >= 0 {
		return b.Items[i], true
	}
	return nil, false
}

// ContainerOf resolves an item's container reference through the board's items.
// Returns false if the item is not contained or the reference does not resolve
// to a Container on this board.
func (b *Board) ContainerOf(item Item) (Container, bool) {
	ce, ok := item.(Containee)
	if !ok || ce.Container() == "" {
		return Container{}, false
	}
	found, ok := b.Find(ce.Container())
	if !ok {
		return Container{}, false
	}
	c, ok := found.(Container)
	return c, ok
}

// Contained returns the items that reference containerID, in board order.
func (b *Board) Contained(containerID string) []Item {
	var out []Item
	for _, it := range b.Items {
		if ce, ok := it.(Containee); ok && ce.Container() == containerID {
			out = append(out, it)
		}
	}
	return out
}

func (b *Board) indexOf(id string) int {
	for i, it := range b.Items {
		if it.ItemID() == id {
			return i
		}
	}
	return -1
}

// IsFullyFormed reports whether the board carries an id, a name and dimensions.
// Board stubs (id and name only) are not fully formed.
func (b *Board) IsFullyFormed() bool {
	return b != nil && b.ID != "" && b.Name != "" && b.Width > 0 && b.Height > 0
}

// Validate checks that the board satisfies the data model invariants: unique
// item ids and container references that resolve to Container items.
func (b *Board) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("board id cannot be empty")
	}

	seen := make(map[string]bool, len(b.Items))
	for i, it := range b.Items {
		if it.ItemID() == "" {
			return fmt.Errorf("item at index %d has empty id", i)
		}
		if seen[it.ItemID()] {
			return fmt.Errorf("duplicate item id: %s", it.ItemID())
		}
		seen[it.ItemID()] = true
	}

	for _, it := range b.Items {
		ce, ok := it.(Containee)
		if !ok || ce.Container() == "" {
			continue
		}
		if _, ok := b.ContainerOf(it); !ok {
			return fmt.Errorf("item %s references missing container %s", it.ItemID(), ce.Container())
		}
	}

	return nil
}

// NewBoard creates an empty board with a fresh id and the default size.
func NewBoard(name string) *Board {
	return &Board{
		ID:     uuid.New().String(),
		Name:   name,
		Width:  DefaultBoardWidth,
		Height: DefaultBoardHeight,
		Items:  []Item{},
	}
}

// NewNote creates a 5x5 note at (x, y). An empty color defaults to yellow.
func NewNote(text, color string, x, y float64) Note {
	if color == "" {
		color = "yellow"
	}
	return Note{ID: uuid.New().String(), Bounds: Bounds{X: x, Y: y, Width: 5, Height: 5}, Text: text, Color: color}
}

// NewText creates a 5x2 text item at (x, y).
func NewText(text string, x, y float64) Text {
	return Text{ID: uuid.New().String(), Bounds: Bounds{X: x, Y: y, Width: 5, Height: 2}, Text: text}
}

// NewContainer creates a 30x20 container at (x, y).
func NewContainer(x, y float64) Container {
	return Container{ID: uuid.New().String(), Bounds: Bounds{X: x, Y: y, Width: 30, Height: 20}, Text: "Unnamed area"}
}

// NewImage creates a 5x5 image for assetID at (x, y).
func NewImage(assetID string, x, y float64) Image {
	return Image{ID: uuid.New().String(), Bounds: Bounds{X: x, Y: y, Width: 5, Height: 5}, AssetID: assetID}
}
