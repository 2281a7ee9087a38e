package board

// Fold decides whether next continues the edit recorded in previous and, if so,
// returns the single entry that replaces previous.
//
// Only edits coarsen: two moves or two updates of exactly the same set of items
// fold. Adds, deletes and front changes always stay separate entries so undo
// never skips over an item's creation or removal.
//
// The folded entry's forward event holds the latest values and its undo event
// the earliest ones, so folding a run of entries gives the same result however
// the run was batched.
func Fold(previous, next HistoryEntry) (HistoryEntry, bool) {
	switch prev := previous.Event.(type) {
	case MoveItem:
		nxt, ok := next.Event.(MoveItem)
		if !ok || !sameTargets(prev, nxt) {
			return HistoryEntry{}, false
		}
		return HistoryEntry{
			Event: nxt,
			Undo:  foldMoveUndo(previous.Undo, next.Undo),
		}, true
	case UpdateItem:
		nxt, ok := next.Event.(UpdateItem)
		if !ok || !sameTargets(prev, nxt) {
			return HistoryEntry{}, false
		}
		return HistoryEntry{
			Event: UpdateItem{BoardID: nxt.BoardID, Items: mergePatches(prev.Items, nxt.Items, true)},
			Undo:  foldUpdateUndo(previous.Undo, next.Undo),
		}, true
	case AddItem, DeleteItem, BringItemToFront:
		return HistoryEntry{}, false
	default:
		panic(unhandled(previous.Event))
	}
}

func sameTargets(a, b Event) bool {
	as := idSet(TargetIDs(a))
	bs := idSet(TargetIDs(b))
	if len(as) != len(bs) {
		return false
	}
	for id := range as {
		if !bs[id] {
			return false
		}
	}
	return true
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// foldMoveUndo keeps the earliest recorded position per item. Items that only
// started moving in the later entry take their position from its undo.
func foldMoveUndo(earlier, later PersistableEvent) PersistableEvent {
	e, eok := earlier.(MoveItem)
	l, lok := later.(MoveItem)
	switch {
	case !eok && !lok:
		return earlier
	case !eok:
		return l
	case !lok:
		return e
	}

	seen := make(map[string]bool, len(e.Items))
	items := make([]ItemPosition, 0, len(e.Items)+len(l.Items))
	for _, p := range e.Items {
		seen[p.ID] = true
		items = append(items, p)
	}
	for _, p := range l.Items {
		if !seen[p.ID] {
			seen[p.ID] = true
			items = append(items, p)
		}
	}
	return MoveItem{BoardID: e.BoardID, Items: items}
}

// foldUpdateUndo keeps the earliest snapshot of every field per item.
func foldUpdateUndo(earlier, later PersistableEvent) PersistableEvent {
	e, eok := earlier.(UpdateItem)
	l, lok := later.(UpdateItem)
	switch {
	case !eok && !lok:
		return earlier
	case !eok:
		return l
	case !lok:
		return e
	}
	return UpdateItem{BoardID: e.BoardID, Items: mergePatches(e.Items, l.Items, false)}
}

// mergePatches combines two patch lists per item id. Fields set in later win
// when laterWins is true, otherwise the earlier values are kept. The result
// lists items in order of first appearance, earlier first.
func mergePatches(earlier, later []ItemPatch, laterWins bool) []ItemPatch {
	var order []string
	merged := make(map[string]ItemPatch, len(earlier)+len(later))
	for n, batch := range [][]ItemPatch{earlier, later} {
		for _, p := range batch {
			cur, ok := merged[p.ID]
			switch {
			case !ok:
				order = append(order, p.ID)
				merged[p.ID] = p
			case n == 0 || laterWins:
				merged[p.ID] = cur.merge(p)
			default:
				merged[p.ID] = p.merge(cur)
			}
		}
	}

	out := make([]ItemPatch, len(order))
	for i, id := range order {
		out[i] = merged[id]
	}
	return out
}
