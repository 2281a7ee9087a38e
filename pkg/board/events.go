package board

import "fmt"

// Action is the discriminant of the Event union, as carried on the wire.
type Action string

const (
	ActionAdd        Action = "item.add"
	ActionUpdate     Action = "item.update"
	ActionMove       Action = "item.move"
	ActionDelete     Action = "item.delete"
	ActionFront      Action = "item.front"
	ActionLock       Action = "item.lock"
	ActionUnlock     Action = "item.unlock"
	ActionBoardLocks Action = "board.locks"
)

// Validate checks if the Action is a known board item event action.
func (a Action) Validate() error {
	switch a {
	case ActionAdd, ActionUpdate, ActionMove, ActionDelete, ActionFront,
		ActionLock, ActionUnlock, ActionBoardLocks:
		return nil
	default:
		return fmt.Errorf("unknown action: %q", a)
	}
}

// Event is a board mutation or presence signal. The set of implementations is
// closed; every switch over events handles all of them and panics on anything
// else (see unhandled).
type Event interface {
	Action() Action
	Board() string

	isEvent()
}

// PersistableEvent is an event that edits board content and is recorded in
// history: AddItem, UpdateItem, MoveItem, DeleteItem and BringItemToFront.
type PersistableEvent interface {
	Event
	isPersistable()
}

// AddItem appends items that are not already on the board.
//
// Indexes and Links are only set on inverses of DeleteItem: Indexes (parallel
// to Items) puts each item back at its original position, and Links re-points
// containees at a restored container.
type AddItem struct {
	BoardID string
	Items   []Item
	Indexes []int
	Links   []ContainerLink
}

// ContainerLink records that a containee pointed at a container.
type ContainerLink struct {
	ItemID      string `json:"itemId"`
	ContainerID string `json:"containerId"`
}

// UpdateItem merges patches onto existing items.
type UpdateItem struct {
	BoardID string
	Items   []ItemPatch
}

// ItemPosition is the target coordinates of one item in a MoveItem.
type ItemPosition struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// MoveItem changes only the x, y of items.
type MoveItem struct {
	BoardID string
	Items   []ItemPosition
}

// DeleteItem removes items.
type DeleteItem struct {
	BoardID string
	ItemIDs []string
}

// BringItemToFront moves items to the end of the board's item sequence.
//
// Order is only set on inverses: it is a snapshot of the full z-order to
// restore, and ItemIDs then lists the items whose move is being undone.
type BringItemToFront struct {
	BoardID string
	ItemIDs []string
	Order   []string
}

// LockItem records that UserID holds the edit lock on ItemID.
type LockItem struct {
	BoardID string
	ItemID  string
	UserID  string
}

// UnlockItem releases the edit lock on ItemID.
type UnlockItem struct {
	BoardID string
	ItemID  string
	UserID  string
}

// GotBoardLocks replaces the whole lock table, typically right after joining a board.
type GotBoardLocks struct {
	BoardID string
	Locks   ItemLocks
}

func (AddItem) Action() Action          { return ActionAdd }
func (UpdateItem) Action() Action       { return ActionUpdate }
func (MoveItem) Action() Action         { return ActionMove }
func (DeleteItem) Action() Action       { return ActionDelete }
func (BringItemToFront) Action() Action { return ActionFront }
func (LockItem) Action() Action         { return ActionLock }
func (UnlockItem) Action() Action       { return ActionUnlock }
func (GotBoardLocks) Action() Action    { return ActionBoardLocks }

func (e AddItem) Board() string          { return e.BoardID }
func (e UpdateItem) Board() string       { return e.BoardID }
func (e MoveItem) Board() string         { return e.BoardID }
func (e DeleteItem) Board() string       { return e.BoardID }
func (e BringItemToFront) Board() string { return e.BoardID }
func (e LockItem) Board() string         { return e.BoardID }
func (e UnlockItem) Board() string       { return e.BoardID }
func (e GotBoardLocks) Board() string    { return e.BoardID }

func (AddItem) isEvent()          {}
func (UpdateItem) isEvent()       {}
func (MoveItem) isEvent()         {}
func (DeleteItem) isEvent()       {}
func (BringItemToFront) isEvent() {}
func (LockItem) isEvent()         {}
func (UnlockItem) isEvent()       {}
func (GotBoardLocks) isEvent()    {}

func (AddItem) isPersistable()          {}
func (UpdateItem) isPersistable()       {}
func (MoveItem) isPersistable()         {}
func (DeleteItem) isPersistable()       {}
func (BringItemToFront) isPersistable() {}

// IsPersistable reports whether e edits board content. Lock events are
// session signals and never reach history.
func IsPersistable(e Event) bool {
	_, ok := e.(PersistableEvent)
	return ok
}

// TargetIDs returns the item ids an event refers to, in event order.
func TargetIDs(e Event) []string {
	switch ev := e.(type) {
	case AddItem:
		ids := make([]string, len(ev.Items))
		for i, it := range ev.Items {
			ids[i] = it.ItemID()
		}
		return ids
	case UpdateItem:
		ids := make([]string, len(ev.Items))
		for i, p := range ev.Items {
			ids[i] = p.ID
		}
		return ids
	case MoveItem:
		ids := make([]string, len(ev.Items))
		for i, p := range ev.Items {
			ids[i] = p.ID
		}
		return ids
	case DeleteItem:
		return ev.ItemIDs
	case BringItemToFront:
		return ev.ItemIDs
	case LockItem:
		return []string{ev.ItemID}
	case UnlockItem:
		return []string{ev.ItemID}
	case GotBoardLocks:
		ids := make([]string, 0, len(ev.Locks))
		for id := range ev.Locks {
			ids = append(ids, id)
		}
		return ids
	default:
		panic(unhandled(e))
	}
}

// Validate checks that the event is well formed: known action, non-empty
// target ids and, for lock events, a user id.
func Validate(e Event) error {
	if e == nil {
		return fmt.Errorf("event cannot be nil")
	}
	switch ev := e.(type) {
	case AddItem:
		if len(ev.Indexes) > 0 && len(ev.Indexes) != len(ev.Items) {
			return fmt.Errorf("%s: indexes length %d does not match items length %d", ev.Action(), len(ev.Indexes), len(ev.Items))
		}
	case LockItem:
		if ev.UserID == "" {
			return fmt.Errorf("%s: user id cannot be empty", ev.Action())
		}
	case GotBoardLocks:
		return nil
	}
	for i, id := range TargetIDs(e) {
		if id == "" {
			return fmt.Errorf("%s: empty item id at index %d", e.Action(), i)
		}
	}
	return nil
}

func unhandled(e Event) string {
	return fmt.Sprintf("board: unhandled event type %T", e)
}
