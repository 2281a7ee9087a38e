package board

import "sort"

// Reduce applies one event to a board and returns the resulting board together
// with the event that undoes it.
//
// Reduce is pure. When the event has no effect (all targets missing, nothing
// actually changed, or a lock event) it returns b itself and a nil inverse, so
// callers can detect "nothing changed" with a pointer comparison. Ids that are
// not on the board are skipped; the rest of the batch still applies.
func Reduce(b *Board, e Event) (*Board, PersistableEvent) {
	switch ev := e.(type) {
	case AddItem:
		return reduceAdd(b, ev)
	case UpdateItem:
		return reduceUpdate(b, ev)
	case MoveItem:
		return reduceMove(b, ev)
	case DeleteItem:
		return reduceDelete(b, ev)
	case BringItemToFront:
		return reduceFront(b, ev)
	case LockItem, UnlockItem, GotBoardLocks:
		return b, nil
	default:
		panic(unhandled(e))
	}
}

// ReduceLocks folds lock events into the lock table. The input map is never
// modified; an unchanged table is returned as-is.
func ReduceLocks(locks ItemLocks, e Event) ItemLocks {
	switch ev := e.(type) {
	case LockItem:
		if holder, ok := locks[ev.ItemID]; ok && holder == ev.UserID {
			return locks
		}
		next := copyLocks(locks)
		next[ev.ItemID] = ev.UserID
		return next
	case UnlockItem:
		if _, ok := locks[ev.ItemID]; !ok {
			return locks
		}
		next := copyLocks(locks)
		delete(next, ev.ItemID)
		return next
	case GotBoardLocks:
		return copyLocks(ev.Locks)
	case AddItem, UpdateItem, MoveItem, DeleteItem, BringItemToFront:
		return locks
	default:
		panic(unhandled(e))
	}
}

func copyLocks(locks ItemLocks) ItemLocks {
	next := make(ItemLocks, len(locks)+1)
	for k, v := range locks {
		next[k] = v
	}
	return next
}

func (b *Board) withItems(items []Item) *Board {
	next := *b
	next.Items = items
	return &next
}

func (b *Board) index() map[string]int {
	idx := make(map[string]int, len(b.Items))
	for i, it := range b.Items {
		idx[it.ItemID()] = i
	}
	return idx
}

func reduceAdd(b *Board, ev AddItem) (*Board, PersistableEvent) {
	idx := b.index()

	type placed struct {
		item Item
		at   int
	}
	var added []placed
	for i, it := range ev.Items {
		if _, exists := idx[it.ItemID()]; exists {
			continue
		}
		idx[it.ItemID()] = -1
		at := -1
		if len(ev.Indexes) == len(ev.Items) {
			at = ev.Indexes[i]
		}
		added = append(added, placed{item: it, at: at})
	}
	if len(added) == 0 {
		return b, nil
	}

	items := make([]Item, len(b.Items), len(b.Items)+len(added))
	copy(items, b.Items)

	// Positioned items go back in ascending index order, which recreates the
	// sequence they were removed from. Unpositioned items are appended.
	sort.SliceStable(added, func(i, j int) bool {
		if added[i].at < 0 || added[j].at < 0 {
			return added[i].at >= 0 && added[j].at < 0
		}
		return added[i].at < added[j].at
	})
	addedIDs := make(map[string]bool, len(added))
	for _, p := range added {
		addedIDs[p.item.ItemID()] = true
		if p.at < 0 || p.at >= len(items) {
			items = append(items, p.item)
			continue
		}
		items = append(items, nil)
		copy(items[p.at+1:], items[p.at:])
		items[p.at] = p.item
	}

	next := b.withItems(items)
	pos := next.index()

	for _, link := range ev.Links {
		if !addedIDs[link.ContainerID] {
			continue
		}
		i, ok := pos[link.ItemID]
		if !ok {
			continue
		}
		if ce, ok := items[i].(Containee); ok && isContainer(next, pos, link.ContainerID) {
			items[i] = ce.withContainer(link.ContainerID)
		}
	}

	// Added items may not point at containers that do not exist.
	for id := range addedIDs {
		i := pos[id]
		if ce, ok := items[i].(Containee); ok && ce.Container() != "" && !isContainer(next, pos, ce.Container()) {
			items[i] = ce.withContainer("")
		}
	}

	ids := make([]string, 0, len(added))
	for _, it := range ev.Items {
		if addedIDs[it.ItemID()] {
			ids = append(ids, it.ItemID())
			delete(addedIDs, it.ItemID())
		}
	}
	return next, DeleteItem{BoardID: ev.BoardID, ItemIDs: ids}
}

func isContainer(b *Board, pos map[string]int, id string) bool {
	i, ok := pos[id]
	if !ok {
		return false
	}
	_, ok = b.Items[i].(Container)
	return ok
}

func reduceUpdate(b *Board, ev UpdateItem) (*Board, PersistableEvent) {
	pos := b.index()
	var items []Item
	var order []int
	touched := make(map[string]bool)

	for _, p := range ev.Items {
		i, ok := pos[p.ID]
		if !ok {
			continue
		}
		cur := b.Items[i]
		if items != nil {
			cur = items[i]
		}
		updated, ok := p.apply(cur)
		if !ok {
			continue
		}
		if ce, ok := updated.(Containee); ok && ce.Container() != "" && !isContainer(b, pos, ce.Container()) {
			updated = ce.withContainer(cur.(Containee).Container())
		}
		if updated == cur {
			continue
		}
		if items == nil {
			items = make([]Item, len(b.Items))
			copy(items, b.Items)
		}
		items[i] = updated
		if !touched[p.ID] {
			touched[p.ID] = true
			order = append(order, i)
		}
	}

	// A batch naming one id twice can net out to the item it started from.
	var prior []ItemPatch
	for _, i := range order {
		if items[i] != b.Items[i] {
			prior = append(prior, PatchOf(b.Items[i]))
		}
	}
	if len(prior) == 0 {
		return b, nil
	}
	return b.withItems(items), UpdateItem{BoardID: ev.BoardID, Items: prior}
}

func reduceMove(b *Board, ev MoveItem) (*Board, PersistableEvent) {
	pos := b.index()
	var items []Item
	var order []int
	touched := make(map[string]bool)

	for _, p := range ev.Items {
		i, ok := pos[p.ID]
		if !ok {
			continue
		}
		cur := b.Items[i]
		if items != nil {
			cur = items[i]
		}
		bounds := cur.ItemBounds()
		if bounds.X == p.X && bounds.Y == p.Y {
			continue
		}
		bounds.X, bounds.Y = p.X, p.Y
		if items == nil {
			items = make([]Item, len(b.Items))
			copy(items, b.Items)
		}
		items[i] = cur.withBounds(bounds)
		if !touched[p.ID] {
			touched[p.ID] = true
			order = append(order, i)
		}
	}

	var prior []ItemPosition
	for _, i := range order {
		orig, now := b.Items[i].ItemBounds(), items[i].ItemBounds()
		if orig.X != now.X || orig.Y != now.Y {
			prior = append(prior, ItemPosition{ID: b.Items[i].ItemID(), X: orig.X, Y: orig.Y})
		}
	}
	if len(prior) == 0 {
		return b, nil
	}
	return b.withItems(items), MoveItem{BoardID: ev.BoardID, Items: prior}
}

func reduceDelete(b *Board, ev DeleteItem) (*Board, PersistableEvent) {
	pos := b.index()
	remove := make(map[string]bool, len(ev.ItemIDs))
	removedContainers := make(map[string]bool)
	for _, id := range ev.ItemIDs {
		i, ok := pos[id]
		if !ok {
			continue
		}
		remove[id] = true
		if _, ok := b.Items[i].(Container); ok {
			removedContainers[id] = true
		}
	}
	if len(remove) == 0 {
		return b, nil
	}

	kept := make([]Item, 0, len(b.Items)-len(remove))
	var removed []Item
	var indexes []int
	var links []ContainerLink
	for i, it := range b.Items {
		if remove[it.ItemID()] {
			removed = append(removed, it)
			indexes = append(indexes, i)
			continue
		}
		if ce, ok := it.(Containee); ok && removedContainers[ce.Container()] {
			links = append(links, ContainerLink{ItemID: it.ItemID(), ContainerID: ce.Container()})
			it = ce.withContainer("")
		}
		kept = append(kept, it)
	}

	return b.withItems(kept), AddItem{BoardID: ev.BoardID, Items: removed, Indexes: indexes, Links: links}
}

func reduceFront(b *Board, ev BringItemToFront) (*Board, PersistableEvent) {
	var items []Item
	if len(ev.Order) > 0 {
		items = restoreOrder(b.Items, ev.Order)
	} else {
		items = bringToFront(b.Items, ev.ItemIDs)
	}

	if sameOrder(b.Items, items) {
		return b, nil
	}

	prior := make([]string, len(b.Items))
	for i, it := range b.Items {
		prior[i] = it.ItemID()
	}
	moved := ev.ItemIDs
	if len(ev.Order) > 0 {
		moved = nil
	}
	return b.withItems(items), BringItemToFront{BoardID: ev.BoardID, ItemIDs: moved, Order: prior}
}

// bringToFront moves the referenced items to the end, keeping the relative
// order within the moved set and within the rest.
func bringToFront(current []Item, ids []string) []Item {
	front := make(map[string]bool, len(ids))
	for _, id := range ids {
		front[id] = true
	}
	back := make([]Item, 0, len(current))
	var top []Item
	for _, it := range current {
		if front[it.ItemID()] {
			top = append(top, it)
		} else {
			back = append(back, it)
		}
	}
	return append(back, top...)
}

// restoreOrder arranges items by their position in order. Items missing from
// order keep their relative order after the ordered ones.
func restoreOrder(current []Item, order []string) []Item {
	rank := make(map[string]int, len(order))
	for i, id := range order {
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}
	items := make([]Item, len(current))
	copy(items, current)
	sort.SliceStable(items, func(i, j int) bool {
		ri, iok := rank[items[i].ItemID()]
		rj, jok := rank[items[j].ItemID()]
		switch {
		case iok && jok:
			return ri < rj
		default:
			return iok && !jok
		}
	})
	return items
}

func sameOrder(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ItemID() != b[i].ItemID() {
			return false
		}
	}
	return true
}
