package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dyluth/corkboard/internal/scaffold"
	"github.com/dyluth/corkboard/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayEvents_Example(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, scaffold.Initialize(dir, false))

	b, err := readBoardFile(filepath.Join(dir, scaffold.BoardsDir, "example.json"), nil)
	require.NoError(t, err)
	events, err := readEventsFile(filepath.Join(dir, scaffold.BoardsDir, "example-events.jsonl"))
	require.NoError(t, err)

	state, locks, skipped, err := replayEvents(context.Background(), b, events, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, skipped)
	assert.Len(t, state.History, 6)
	assert.Empty(t, locks, "note-1 was unlocked at the end")
	assert.Len(t, state.Board.Contained("went-well"), 2)
	assert.Equal(t, "went-well", state.Board.Items[len(state.Board.Items)-1].ItemID())
}

func TestReplayEvents(t *testing.T) {
	ctx := context.Background()
	start := func() *board.Board {
		return &board.Board{ID: "b1", Name: "Test", Width: 100, Height: 80, Items: []board.Item{
			board.Note{ID: "n1", Bounds: board.Bounds{Width: 5, Height: 5}, Color: "yellow"},
		}}
	}

	t.Run("counts events without effect", func(t *testing.T) {
		events := []board.Event{
			board.MoveItem{BoardID: "b1", Items: []board.ItemPosition{{ID: "n1", X: 1, Y: 1}}},
			board.MoveItem{BoardID: "b1", Items: []board.ItemPosition{{ID: "n1", X: 1, Y: 1}}},
			board.DeleteItem{BoardID: "b1", ItemIDs: []string{"ghost"}},
			board.LockItem{BoardID: "b1", ItemID: "n1", UserID: "bob"},
		}

		state, locks, skipped, err := replayEvents(ctx, start(), events, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, skipped)
		assert.Len(t, state.History, 1)
		assert.Equal(t, board.ItemLocks{"n1": "bob"}, locks)
	})

	t.Run("lock takeover counts as a change", func(t *testing.T) {
		events := []board.Event{
			board.LockItem{BoardID: "b1", ItemID: "n1", UserID: "bob"},
			board.LockItem{BoardID: "b1", ItemID: "n1", UserID: "alice"},
			board.LockItem{BoardID: "b1", ItemID: "n1", UserID: "alice"},
			board.GotBoardLocks{BoardID: "b1", Locks: board.ItemLocks{"n1": "alice"}},
		}

		_, locks, skipped, err := replayEvents(ctx, start(), events, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, skipped)
		assert.Equal(t, board.ItemLocks{"n1": "alice"}, locks)
	})

	t.Run("caps history depth", func(t *testing.T) {
		events := []board.Event{
			board.AddItem{BoardID: "b1", Items: []board.Item{board.Note{ID: "n2", Bounds: board.Bounds{Width: 5, Height: 5}}}},
			board.AddItem{BoardID: "b1", Items: []board.Item{board.Note{ID: "n3", Bounds: board.Bounds{Width: 5, Height: 5}}}},
			board.DeleteItem{BoardID: "b1", ItemIDs: []string{"n1"}},
		}

		state, _, _, err := replayEvents(ctx, start(), events, 2, nil)
		require.NoError(t, err)
		require.Len(t, state.History, 2)
		assert.Equal(t, board.ActionDelete, state.History[1].Event.Action())
	})

	t.Run("rejects events for another board", func(t *testing.T) {
		events := []board.Event{board.DeleteItem{BoardID: "other", ItemIDs: []string{"n1"}}}

		_, _, _, err := replayEvents(ctx, start(), events, 0, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event 1 (item.delete)")
	})
}
