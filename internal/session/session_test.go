package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/corkboard/pkg/board"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

type failingPersister struct{}

func (failingPersister) SaveState(context.Context, board.BoardWithHistory, board.ItemLocks) error {
	return errors.New("redis down")
}

type fakeSource struct {
	events chan board.Event
	errors chan error
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(chan board.Event, 10), errors: make(chan error, 10)}
}

func (f *fakeSource) Events() <-chan board.Event { return f.events }
func (f *fakeSource) Errors() <-chan error       { return f.errors }

func note(id string, x, y float64) board.Note {
	return board.Note{ID: id, Bounds: board.Bounds{X: x, Y: y, Width: 5, Height: 5}, Text: id, Color: "yellow"}
}

func newBoard(items ...board.Item) *board.Board {
	return &board.Board{ID: "b1", Name: "Session Board", Width: 100, Height: 80, Items: items}
}

func move(id string, x, y float64) board.MoveItem {
	return board.MoveItem{BoardID: "b1", Items: []board.ItemPosition{{ID: id, X: x, Y: y}}}
}

func newSession(t *testing.T, opts Options, items ...board.Item) *Session {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = &recordingLogger{}
	}
	return New(board.BoardWithHistory{Board: newBoard(items...)}, nil, nil, opts)
}

func TestSession_UndoRedo(t *testing.T) {
	ctx := context.Background()

	t.Run("undo reverts a drag in one step", func(t *testing.T) {
		s := newSession(t, Options{}, note("A", 0, 0))
		initial, _ := s.Snapshot()

		for x := 1.0; x <= 5; x++ {
			_, err := s.Apply(ctx, move("A", x*10, 0))
			require.NoError(t, err)
		}

		applied, err := s.Undo(ctx)
		require.NoError(t, err)
		assert.Equal(t, move("A", 0, 0), applied)

		state, _ := s.Snapshot()
		assert.Equal(t, initial.Board.Items, state.Board.Items)
		assert.False(t, s.CanUndo())
		assert.True(t, s.CanRedo())

		applied, err = s.Redo(ctx)
		require.NoError(t, err)
		assert.Equal(t, move("A", 50, 0), applied)

		state, _ = s.Snapshot()
		assert.Equal(t, float64(50), state.Board.Items[0].ItemBounds().X)
	})

	t.Run("edit that nets to no change leaves no undo step", func(t *testing.T) {
		s := newSession(t, Options{}, note("A", 2, 0))

		undo, err := s.Apply(ctx, board.MoveItem{BoardID: "b1", Items: []board.ItemPosition{
			{ID: "A", X: 1, Y: 2},
			{ID: "A", X: 2, Y: 0},
		}})
		require.NoError(t, err)
		assert.Nil(t, undo)
		assert.False(t, s.CanUndo())

		state, _ := s.Snapshot()
		assert.Empty(t, state.History)
	})

	t.Run("undo walks back separate edits in reverse order", func(t *testing.T) {
		s := newSession(t, Options{})

		_, err := s.Apply(ctx, board.AddItem{BoardID: "b1", Items: []board.Item{note("A", 0, 0)}})
		require.NoError(t, err)
		_, err = s.Apply(ctx, board.UpdateItem{BoardID: "b1", Items: []board.ItemPatch{{ID: "A", Text: strPtr("edited")}}})
		require.NoError(t, err)

		_, err = s.Undo(ctx)
		require.NoError(t, err)
		state, _ := s.Snapshot()
		assert.Equal(t, "A", state.Board.Items[0].(board.Note).Text)

		_, err = s.Undo(ctx)
		require.NoError(t, err)
		state, _ = s.Snapshot()
		assert.Empty(t, state.Board.Items)

		_, err = s.Undo(ctx)
		assert.ErrorIs(t, err, ErrNothingToUndo)
	})

	t.Run("a new edit clears redo", func(t *testing.T) {
		s := newSession(t, Options{}, note("A", 0, 0), note("B", 0, 0))

		_, err := s.Apply(ctx, move("A", 1, 1))
		require.NoError(t, err)
		_, err = s.Undo(ctx)
		require.NoError(t, err)
		require.True(t, s.CanRedo())

		_, err = s.Apply(ctx, move("B", 2, 2))
		require.NoError(t, err)
		assert.False(t, s.CanRedo())

		_, err = s.Redo(ctx)
		assert.ErrorIs(t, err, ErrNothingToRedo)
	})

	t.Run("undo and redo are recorded in history", func(t *testing.T) {
		s := newSession(t, Options{}, note("A", 0, 0))

		_, err := s.Apply(ctx, board.DeleteItem{BoardID: "b1", ItemIDs: []string{"A"}})
		require.NoError(t, err)
		_, err = s.Undo(ctx)
		require.NoError(t, err)

		state, _ := s.Snapshot()
		require.Len(t, state.History, 2)
		assert.Equal(t, board.ActionDelete, state.History[0].Event.Action())
		assert.Equal(t, board.ActionAdd, state.History[1].Event.Action())
	})
}

func TestSession_RemoteEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("remote events do not touch the undo stack", func(t *testing.T) {
		s := newSession(t, Options{}, note("A", 0, 0))

		undo, err := s.Receive(ctx, move("A", 5, 5))
		require.NoError(t, err)
		assert.NotNil(t, undo)
		assert.False(t, s.CanUndo())

		state, _ := s.Snapshot()
		assert.Len(t, state.History, 1)
	})

	t.Run("stale inverses are discarded", func(t *testing.T) {
		logger := &recordingLogger{}
		s := newSession(t, Options{Logger: logger}, note("A", 0, 0))

		_, err := s.Apply(ctx, move("A", 5, 5))
		require.NoError(t, err)
		_, err = s.Receive(ctx, board.DeleteItem{BoardID: "b1", ItemIDs: []string{"A"}})
		require.NoError(t, err)

		_, err = s.Undo(ctx)
		assert.ErrorIs(t, err, ErrNothingToUndo)
		assert.Contains(t, logger.Lines()[0], "[DEBUG] Discarded stale item.move")
	})

	t.Run("events for another board are rejected", func(t *testing.T) {
		s := newSession(t, Options{}, note("A", 0, 0))

		_, err := s.Receive(ctx, board.MoveItem{BoardID: "other", Items: []board.ItemPosition{{ID: "A", X: 1, Y: 1}}})
		assert.ErrorContains(t, err, "sent to session of board b1")
	})

	t.Run("malformed events are rejected", func(t *testing.T) {
		s := newSession(t, Options{}, note("A", 0, 0))

		_, err := s.Apply(ctx, board.LockItem{BoardID: "b1", ItemID: "A"})
		assert.ErrorContains(t, err, "invalid event")
	})
}

func TestSession_Locks(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Options{Buffer: 10}, note("A", 0, 0))
	before, _ := s.Snapshot()

	undo, err := s.Receive(ctx, board.LockItem{BoardID: "b1", ItemID: "A", UserID: "u1"})
	require.NoError(t, err)
	assert.Nil(t, undo)

	state, locks := s.Snapshot()
	assert.Same(t, before.Board, state.Board)
	assert.Empty(t, state.History)
	assert.Equal(t, board.ItemLocks{"A": "u1"}, locks)

	select {
	case a := <-s.Applied():
		assert.Equal(t, board.ActionLock, a.Event.Action())
		assert.False(t, a.Local)
	case <-time.After(time.Second):
		t.Fatal("no notification for lock change")
	}

	_, err = s.Receive(ctx, board.GotBoardLocks{BoardID: "b1", Locks: board.ItemLocks{}})
	require.NoError(t, err)
	_, locks = s.Snapshot()
	assert.Empty(t, locks)
}

func TestSession_MaxHistory(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Options{MaxHistory: 2}, note("A", 0, 0), note("B", 0, 0), note("C", 0, 0))

	for _, id := range []string{"A", "B", "C"} {
		_, err := s.Apply(ctx, move(id, 9, 9))
		require.NoError(t, err)
	}

	state, _ := s.Snapshot()
	require.Len(t, state.History, 2)
	assert.Equal(t, move("B", 9, 9), state.History[0].Event)

	for i := 0; i < 2; i++ {
		_, err := s.Undo(ctx)
		require.NoError(t, err)
	}
	_, err := s.Undo(ctx)
	assert.ErrorIs(t, err, ErrNothingToUndo)

	state, _ = s.Snapshot()
	assert.Equal(t, float64(9), state.Board.Items[0].ItemBounds().X, "oldest edit fell off the undo stack")
}

func TestSession_Persistence(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client, err := board.NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	defer client.Close()

	s := New(board.BoardWithHistory{Board: newBoard(note("A", 0, 0))}, nil, client, Options{Logger: &recordingLogger{}})

	_, err = s.Apply(ctx, move("A", 3, 4))
	require.NoError(t, err)
	_, err = s.Receive(ctx, board.LockItem{BoardID: "b1", ItemID: "A", UserID: "u1"})
	require.NoError(t, err)

	state, locks := s.Snapshot()
	loaded, loadedLocks, err := client.LoadState(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
	assert.Equal(t, locks, loadedLocks)

	t.Run("failed writes leave the session unchanged", func(t *testing.T) {
		failing := New(state, locks, failingPersister{}, Options{Logger: &recordingLogger{}})

		_, err := failing.Apply(ctx, move("A", 50, 50))
		assert.ErrorContains(t, err, "failed to persist board b1")

		after, _ := failing.Snapshot()
		assert.Same(t, state.Board, after.Board)
		assert.False(t, failing.CanUndo())
	})
}

func TestSession_Run(t *testing.T) {
	t.Run("applies events until the source closes", func(t *testing.T) {
		logger := &recordingLogger{}
		s := newSession(t, Options{Logger: logger}, note("A", 0, 0))
		src := newFakeSource()

		src.events <- move("A", 1, 1)
		src.errors <- errors.New("failed to unmarshal board event: bad")
		src.events <- move("A", 2, 2)
		close(src.events)

		err := s.Run(context.Background(), src)
		require.NoError(t, err)

		state, _ := s.Snapshot()
		assert.Equal(t, float64(2), state.Board.Items[0].ItemBounds().X)
		assert.Len(t, state.History, 1)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		s := newSession(t, Options{}, note("A", 0, 0))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Run(ctx, newFakeSource())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("drains a redis subscription", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := board.NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
		require.NoError(t, err)
		defer client.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sub, err := client.SubscribeEvents(ctx, "b1")
		require.NoError(t, err)
		defer sub.Close()

		s := New(board.BoardWithHistory{Board: newBoard(note("A", 0, 0))}, nil, client, Options{Buffer: 10, Logger: &recordingLogger{}})
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx, sub) }()

		require.NoError(t, client.PublishEvent(ctx, board.AddItem{BoardID: "b1", Items: []board.Item{note("B", 7, 7)}}))

		select {
		case a := <-s.Applied():
			assert.Equal(t, board.ActionAdd, a.Event.Action())
			assert.Equal(t, 1, a.History)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for applied event")
		}

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Run did not stop")
		}

		stored, err := client.GetBoard(context.Background(), "b1")
		require.NoError(t, err)
		assert.Len(t, stored.Items, 2)
	})
}

func strPtr(s string) *string { return &s }
