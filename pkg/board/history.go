package board

// HistoryEntry is one undoable step: the forward event as applied and the event
// that reverses it. After folding, Event carries the latest values of the step
// and Undo the values from before its first event.
type HistoryEntry struct {
	Event PersistableEvent
	Undo  PersistableEvent
}

// BoardWithHistory is a board plus its folded history, oldest entry first.
// No two adjacent entries can be folded into each other.
type BoardWithHistory struct {
	Board   *Board
	History []HistoryEntry
}

// ReduceWithHistory applies e to state.Board and records it in history,
// folding it into the latest entry when possible. Events that leave the board
// unchanged, and lock events, do not touch history. The undo event from Reduce
// is returned unchanged.
func ReduceWithHistory(state BoardWithHistory, e Event) (BoardWithHistory, PersistableEvent) {
	updated, undo := Reduce(state.Board, e)
	if updated == state.Board {
		return state, undo
	}

	history := state.History
	if pe, ok := e.(PersistableEvent); ok {
		history = AppendHistory(history, HistoryEntry{Event: pe, Undo: undo})
	}
	return BoardWithHistory{Board: updated, History: history}, undo
}

// AppendHistory adds entry to history, folding it into the last entry when
// Fold allows. It never writes into the backing array of history, which may
// be shared with earlier states.
func AppendHistory(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	if len(history) == 0 {
		return []HistoryEntry{entry}
	}

	last := history[len(history)-1]
	if folded, ok := Fold(last, entry); ok {
		next := make([]HistoryEntry, len(history))
		copy(next, history)
		next[len(next)-1] = folded
		return next
	}

	next := make([]HistoryEntry, len(history), len(history)+1)
	copy(next, history)
	return append(next, entry)
}

// TruncateHistory keeps at most maxDepth of the newest entries. A maxDepth of
// zero or less means unlimited.
func TruncateHistory(history []HistoryEntry, maxDepth int) []HistoryEntry {
	if maxDepth <= 0 || len(history) <= maxDepth {
		return history
	}
	return history[len(history)-maxDepth:]
}

// Replay applies events in order through ReduceWithHistory and returns the
// final state along with the undo event produced for each input event
// (nil where an event had no effect).
func Replay(state BoardWithHistory, events []Event) (BoardWithHistory, []PersistableEvent) {
	undos := make([]PersistableEvent, len(events))
	for i, e := range events {
		state, undos[i] = ReduceWithHistory(state, e)
	}
	return state, undos
}
