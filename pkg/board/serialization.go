package board

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
)

// Serialization helpers for the wire format shared with browser clients and
// for the Redis hash layout.
//
// Items travel as flat JSON objects tagged by "type"; events are flat JSON
// objects tagged by "action". Redis stores a board as a hash whose scalar
// fields are stored directly and whose item list is a JSON-encoded field.

// ItemDocument is the flat wire form of an item. Items is only present on
// legacy container documents, which listed their contents instead of having
// contents point back at them.
type ItemDocument struct {
	ID          string   `json:"id"`
	Type        ItemType `json:"type,omitempty"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Width       float64  `json:"width,omitempty"`
	Height      float64  `json:"height,omitempty"`
	Text        string   `json:"text,omitempty"`
	Color       string   `json:"color,omitempty"`
	AssetID     string   `json:"assetId,omitempty"`
	Src         string   `json:"src,omitempty"`
	ContainerID string   `json:"containerId,omitempty"`
	Items       []string `json:"items,omitempty"`
}

// BoardDocument is the wire form of a board, possibly legacy-shaped. Use
// Migrate to turn it into a Board.
type BoardDocument struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Width  float64        `json:"width,omitempty"`
	Height float64        `json:"height,omitempty"`
	Items  []ItemDocument `json:"items"`
}

func toWire(item Item) ItemDocument {
	switch it := item.(type) {
	case Note:
		return ItemDocument{ID: it.ID, Type: ItemTypeNote, X: it.X, Y: it.Y, Width: it.Width, Height: it.Height,
			Text: it.Text, Color: it.Color, ContainerID: it.ContainerID}
	case Text:
		return ItemDocument{ID: it.ID, Type: ItemTypeText, X: it.X, Y: it.Y, Width: it.Width, Height: it.Height,
			Text: it.Text, ContainerID: it.ContainerID}
	case Image:
		return ItemDocument{ID: it.ID, Type: ItemTypeImage, X: it.X, Y: it.Y, Width: it.Width, Height: it.Height,
			AssetID: it.AssetID, Src: it.Src, ContainerID: it.ContainerID}
	case Container:
		return ItemDocument{ID: it.ID, Type: ItemTypeContainer, X: it.X, Y: it.Y, Width: it.Width, Height: it.Height,
			Text: it.Text}
	default:
		panic(fmt.Sprintf("board: unhandled item type %T", item))
	}
}

// item converts the document to its variant. Fields that do not belong to the
// variant are dropped.
func (d ItemDocument) item() Item {
	b := Bounds{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}
	switch d.Type {
	case ItemTypeText:
		return Text{ID: d.ID, Bounds: b, Text: d.Text, ContainerID: d.ContainerID}
	case ItemTypeImage:
		return Image{ID: d.ID, Bounds: b, AssetID: d.AssetID, Src: d.Src, ContainerID: d.ContainerID}
	case ItemTypeContainer:
		return Container{ID: d.ID, Bounds: b, Text: d.Text}
	default:
		return Note{ID: d.ID, Bounds: b, Text: d.Text, Color: d.Color, ContainerID: d.ContainerID}
	}
}

// Item converts a well-formed document to an Item.
func (d ItemDocument) Item() (Item, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if err := d.Type.Validate(); err != nil {
		return nil, fmt.Errorf("item %s: %w", d.ID, err)
	}
	return d.item(), nil
}

func (n Note) MarshalJSON() ([]byte, error)      { return json.Marshal(toWire(n)) }
func (t Text) MarshalJSON() ([]byte, error)      { return json.Marshal(toWire(t)) }
func (i Image) MarshalJSON() ([]byte, error)     { return json.Marshal(toWire(i)) }
func (c Container) MarshalJSON() ([]byte, error) { return json.Marshal(toWire(c)) }

// MarshalItems encodes items as a JSON array of tagged objects.
func MarshalItems(items []Item) ([]byte, error) {
	docs := make([]ItemDocument, len(items))
	for i, it := range items {
		docs[i] = toWire(it)
	}
	return json.Marshal(docs)
}

// UnmarshalItems decodes a JSON array of tagged items.
func UnmarshalItems(data []byte) ([]Item, error) {
	var docs []ItemDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(docs))
	for _, d := range docs {
		it, err := d.Item()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Document returns the wire form of the board.
func (b *Board) Document() BoardDocument {
	docs := make([]ItemDocument, len(b.Items))
	for i, it := range b.Items {
		docs[i] = toWire(it)
	}
	return BoardDocument{ID: b.ID, Name: b.Name, Width: b.Width, Height: b.Height, Items: docs}
}

// MarshalJSON encodes the board in its wire form.
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Document())
}

// UnmarshalJSON decodes and normalizes a board document. Problems found while
// normalizing are reported through the standard logger.
func (b *Board) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeBoard(data, log.Default())
	if err != nil {
		return err
	}
	*b = *decoded
	return nil
}

// DecodeBoard parses a board document, legacy or current, and normalizes it.
func DecodeBoard(data []byte, logger Logger) (*Board, error) {
	var doc BoardDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	return Migrate(doc, logger), nil
}

type eventDocument struct {
	Action  Action          `json:"action"`
	BoardID string          `json:"boardId"`
	Items   json.RawMessage `json:"items,omitempty"`
	Indexes []int           `json:"indexes,omitempty"`
	Links   []ContainerLink `json:"links,omitempty"`
	ItemIDs []string        `json:"itemIds,omitempty"`
	Order   []string        `json:"order,omitempty"`
	ItemID  string          `json:"itemId,omitempty"`
	UserID  string          `json:"userId,omitempty"`
	Locks   ItemLocks       `json:"locks,omitempty"`
}

// MarshalEvent encodes an event as a flat JSON object tagged by "action".
func MarshalEvent(e Event) ([]byte, error) {
	doc := eventDocument{Action: e.Action(), BoardID: e.Board()}
	var items any
	switch ev := e.(type) {
	case AddItem:
		docs := make([]ItemDocument, len(ev.Items))
		for i, it := range ev.Items {
			docs[i] = toWire(it)
		}
		items = docs
		doc.Indexes = ev.Indexes
		doc.Links = ev.Links
	case UpdateItem:
		items = ev.Items
	case MoveItem:
		items = ev.Items
	case DeleteItem:
		doc.ItemIDs = ev.ItemIDs
	case BringItemToFront:
		doc.ItemIDs, doc.Order = ev.ItemIDs, ev.Order
	case LockItem:
		doc.ItemID, doc.UserID = ev.ItemID, ev.UserID
	case UnlockItem:
		doc.ItemID, doc.UserID = ev.ItemID, ev.UserID
	case GotBoardLocks:
		doc.Locks = ev.Locks
	default:
		panic(unhandled(e))
	}

	if items != nil {
		raw, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s items: %w", e.Action(), err)
		}
		doc.Items = raw
	}
	return json.Marshal(doc)
}

// UnmarshalEvent decodes a flat JSON event.
func UnmarshalEvent(data []byte) (Event, error) {
	var doc eventDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	switch doc.Action {
	case ActionAdd:
		var items []Item
		if len(doc.Items) > 0 {
			var err error
			if items, err = UnmarshalItems(doc.Items); err != nil {
				return nil, fmt.Errorf("failed to unmarshal %s items: %w", doc.Action, err)
			}
		}
		return AddItem{BoardID: doc.BoardID, Items: items, Indexes: doc.Indexes, Links: doc.Links}, nil
	case ActionUpdate:
		var patches []ItemPatch
		if err := unmarshalOptional(doc.Items, &patches); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s items: %w", doc.Action, err)
		}
		return UpdateItem{BoardID: doc.BoardID, Items: patches}, nil
	case ActionMove:
		var positions []ItemPosition
		if err := unmarshalOptional(doc.Items, &positions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s items: %w", doc.Action, err)
		}
		return MoveItem{BoardID: doc.BoardID, Items: positions}, nil
	case ActionDelete:
		return DeleteItem{BoardID: doc.BoardID, ItemIDs: doc.ItemIDs}, nil
	case ActionFront:
		return BringItemToFront{BoardID: doc.BoardID, ItemIDs: doc.ItemIDs, Order: doc.Order}, nil
	case ActionLock:
		return LockItem{BoardID: doc.BoardID, ItemID: doc.ItemID, UserID: doc.UserID}, nil
	case ActionUnlock:
		return UnlockItem{BoardID: doc.BoardID, ItemID: doc.ItemID, UserID: doc.UserID}, nil
	case ActionBoardLocks:
		locks := doc.Locks
		if locks == nil {
			locks = ItemLocks{}
		}
		return GotBoardLocks{BoardID: doc.BoardID, Locks: locks}, nil
	default:
		return nil, fmt.Errorf("unknown action: %q", doc.Action)
	}
}

func unmarshalOptional(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (e AddItem) MarshalJSON() ([]byte, error)          { return MarshalEvent(e) }
func (e UpdateItem) MarshalJSON() ([]byte, error)       { return MarshalEvent(e) }
func (e MoveItem) MarshalJSON() ([]byte, error)         { return MarshalEvent(e) }
func (e DeleteItem) MarshalJSON() ([]byte, error)       { return MarshalEvent(e) }
func (e BringItemToFront) MarshalJSON() ([]byte, error) { return MarshalEvent(e) }
func (e LockItem) MarshalJSON() ([]byte, error)         { return MarshalEvent(e) }
func (e UnlockItem) MarshalJSON() ([]byte, error)       { return MarshalEvent(e) }
func (e GotBoardLocks) MarshalJSON() ([]byte, error)    { return MarshalEvent(e) }

type historyEntryDocument struct {
	Event json.RawMessage `json:"event"`
	Undo  json.RawMessage `json:"undo,omitempty"`
}

// MarshalJSON encodes the entry as {"event": ..., "undo": ...}.
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	var doc historyEntryDocument
	var err error
	if doc.Event, err = MarshalEvent(h.Event); err != nil {
		return nil, err
	}
	if h.Undo != nil {
		if doc.Undo, err = MarshalEvent(h.Undo); err != nil {
			return nil, err
		}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes an entry; both events must be persistable.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var doc historyEntryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal history entry: %w", err)
	}

	ev, err := unmarshalPersistable(doc.Event)
	if err != nil {
		return err
	}
	h.Event, h.Undo = ev, nil
	if len(doc.Undo) > 0 {
		if h.Undo, err = unmarshalPersistable(doc.Undo); err != nil {
			return err
		}
	}
	return nil
}

func unmarshalPersistable(data []byte) (PersistableEvent, error) {
	e, err := UnmarshalEvent(data)
	if err != nil {
		return nil, err
	}
	pe, ok := e.(PersistableEvent)
	if !ok {
		return nil, fmt.Errorf("%s is not a persistable event", e.Action())
	}
	return pe, nil
}

// BoardToHash converts a Board to a Redis hash. The item list is JSON-encoded.
func BoardToHash(b *Board) (map[string]interface{}, error) {
	itemsJSON, err := MarshalItems(b.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal items: %w", err)
	}

	hash := map[string]interface{}{
		"id":     b.ID,
		"name":   b.Name,
		"width":  strconv.FormatFloat(b.Width, 'f', -1, 64),
		"height": strconv.FormatFloat(b.Height, 'f', -1, 64),
		"items":  string(itemsJSON),
	}

	return hash, nil
}

// HashToBoard converts a Redis hash back to a normalized Board.
func HashToBoard(hash map[string]string, logger Logger) (*Board, error) {
	doc := BoardDocument{ID: hash["id"], Name: hash["name"]}

	if v := hash["width"]; v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid width field: %w", err)
		}
		doc.Width = w
	}
	if v := hash["height"]; v != "" {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid height field: %w", err)
		}
		doc.Height = h
	}

	if itemsJSON := hash["items"]; itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &doc.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
	}

	return Migrate(doc, logger), nil
}
