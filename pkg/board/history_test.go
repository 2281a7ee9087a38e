package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceWithHistory_DragIsOneStep(t *testing.T) {
	b := testBoard(testNote("A", 0, 0), testContainer("B"))
	state := BoardWithHistory{Board: b}

	state, _ = ReduceWithHistory(state, MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "A", X: 10, Y: 0}}})
	state, _ = ReduceWithHistory(state, MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "A", X: 20, Y: 0}}})

	require.Len(t, state.History, 1)
	entry := state.History[0]
	assert.Equal(t, MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "A", X: 20, Y: 0}}}, entry.Event)
	assert.Equal(t, MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "A", X: 0, Y: 0}}}, entry.Undo)

	restored, _ := Reduce(state.Board, entry.Undo)
	assert.Equal(t, b, restored)
}

func TestReduceWithHistory_LocksSkipHistory(t *testing.T) {
	state := BoardWithHistory{Board: testBoard(testNote("A", 0, 0))}

	next, undo := ReduceWithHistory(state, LockItem{BoardID: "b1", ItemID: "A", UserID: "u1"})
	assert.Nil(t, undo)
	assert.Same(t, state.Board, next.Board)
	assert.Empty(t, next.History)

	next, undo = ReduceWithHistory(next, UnlockItem{BoardID: "b1", ItemID: "A", UserID: "u1"})
	assert.Nil(t, undo)
	assert.Same(t, state.Board, next.Board)
	assert.Empty(t, next.History)
}

func TestReduceWithHistory_Boundaries(t *testing.T) {
	t.Run("add then move of the same item stay separate", func(t *testing.T) {
		state := BoardWithHistory{Board: testBoard()}
		state, _ = ReduceWithHistory(state, AddItem{BoardID: "b1", Items: []Item{testNote("A", 0, 0)}})
		state, _ = ReduceWithHistory(state, MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "A", X: 3, Y: 3}}})

		require.Len(t, state.History, 2)
		assert.Equal(t, ActionAdd, state.History[0].Event.Action())
		assert.Equal(t, ActionMove, state.History[1].Event.Action())
	})

	t.Run("moves of different items stay separate", func(t *testing.T) {
		state := BoardWithHistory{Board: testBoard(testNote("A", 0, 0), testNote("B", 0, 0))}
		state, _ = ReduceWithHistory(state, MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "A", X: 3, Y: 3}}})
		state, _ = ReduceWithHistory(state, MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "B", X: 3, Y: 3}}})

		assert.Len(t, state.History, 2)
	})

	t.Run("no-op events leave state untouched", func(t *testing.T) {
		state := BoardWithHistory{Board: testBoard(testNote("A", 0, 0))}
		next, undo := ReduceWithHistory(state, DeleteItem{BoardID: "b1", ItemIDs: []string{"gone"}})

		assert.Nil(t, undo)
		assert.Same(t, state.Board, next.Board)
		assert.Empty(t, next.History)
	})
}

func TestReduceWithHistory_DoesNotShareHistory(t *testing.T) {
	state := BoardWithHistory{Board: testBoard(testNote("A", 0, 0), testNote("B", 0, 0))}
	state, _ = ReduceWithHistory(state, MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "A", X: 1, Y: 1}}})
	before := state.History[0]

	folded, _ := ReduceWithHistory(state, MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "A", X: 2, Y: 2}}})
	appended, _ := ReduceWithHistory(state, MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "B", X: 2, Y: 2}}})

	assert.Equal(t, before, state.History[0])
	assert.Len(t, state.History, 1)
	assert.Len(t, folded.History, 1)
	assert.Len(t, appended.History, 2)
}

func TestReplay(t *testing.T) {
	b := testBoard()
	events := []Event{
		AddItem{BoardID: "b1", Items: []Item{testNote("A", 0, 0), testContainer("C")}},
		LockItem{BoardID: "b1", ItemID: "A", UserID: "u1"},
		MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "A", X: 55, Y: 55}}},
		MoveItem{BoardID: "b1", Items: []ItemPosition{{ID: "A", X: 60, Y: 60}}},
		UpdateItem{BoardID: "b1", Items: []ItemPatch{{ID: "A", ContainerID: ptr("C")}}},
		UnlockItem{BoardID: "b1", ItemID: "A", UserID: "u1"},
	}

	state, undos := Replay(BoardWithHistory{Board: b}, events)

	require.Len(t, undos, len(events))
	assert.Nil(t, undos[1])
	assert.Nil(t, undos[5])
	assert.Len(t, state.History, 3)

	c, ok := state.Board.ContainerOf(state.Board.Items[0])
	require.True(t, ok)
	assert.Equal(t, "C", c.ID)

	// Undoing every step in reverse returns to the empty board.
	cur := state.Board
	for i := len(state.History) - 1; i >= 0; i-- {
		cur, _ = Reduce(cur, state.History[i].Undo)
	}
	assert.Empty(t, cur.Items)
}

func TestTruncateHistory(t *testing.T) {
	history := []HistoryEntry{
		moveEntry("A", 0, 0, 1, 1),
		moveEntry("B", 0, 0, 1, 1),
		moveEntry("C", 0, 0, 1, 1),
	}

	assert.Equal(t, history, TruncateHistory(history, 0))
	assert.Equal(t, history, TruncateHistory(history, 5))
	assert.Equal(t, history[1:], TruncateHistory(history, 2))
}
