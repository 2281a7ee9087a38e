package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/dyluth/corkboard/pkg/board"
)

var (
	// ErrNothingToUndo is returned by Undo when no local edit can be undone
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo when no undone edit can be reapplied
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Persister stores a board's state after every change. *board.Client satisfies it.
type Persister interface {
	SaveState(ctx context.Context, state board.BoardWithHistory, locks board.ItemLocks) error
}

// EventSource delivers a board's events in server order. *board.Subscription satisfies it.
type EventSource interface {
	Events() <-chan board.Event
	Errors() <-chan error
}

// Options configures a Session. Zero values mean unlimited history, no
// notifications and the standard logger.
type Options struct {
	MaxHistory int
	Buffer     int
	Logger     board.Logger
}

// Applied describes one event that went through the session.
type Applied struct {
	Event   board.Event
	Undo    board.PersistableEvent
	Local   bool
	History int
}

// Session owns the live state of one board: the board with its history, the
// lock table and the local undo/redo stacks. All methods are safe for
// concurrent use; events are applied one at a time in call order.
type Session struct {
	mu        sync.Mutex
	state     board.BoardWithHistory
	locks     board.ItemLocks
	undo      []board.HistoryEntry
	redo      []board.HistoryEntry
	persister Persister
	applied   chan Applied
	opts      Options
	logger    board.Logger
}

// New creates a session starting from state and locks. persister may be nil
// for sessions that are never written back.
func New(state board.BoardWithHistory, locks board.ItemLocks, persister Persister, opts Options) *Session {
	if locks == nil {
		locks = board.ItemLocks{}
	}
	s := &Session{
		state:     state,
		locks:     locks,
		persister: persister,
		opts:      opts,
		logger:    opts.Logger,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if opts.Buffer > 0 {
		s.applied = make(chan Applied, opts.Buffer)
	}
	return s
}

// Applied returns the notification channel, or nil if Options.Buffer was zero.
// Notifications are dropped when the channel is full.
func (s *Session) Applied() <-chan Applied {
	return s.applied
}

// Snapshot returns the current state. The values are immutable and stay
// valid after further events are applied.
func (s *Session) Snapshot() (board.BoardWithHistory, board.ItemLocks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.locks
}

// CanUndo reports whether Undo has a local edit to revert.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether Redo has an undone edit to reapply.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Apply applies a local edit and returns its inverse. Effective edits are
// pushed onto the undo stack and clear the redo stack. Consecutive edits that
// fold in history (dragging, retyping) fold on the undo stack too, so one Undo
// reverts the whole gesture.
func (s *Session) Apply(ctx context.Context, e board.Event) (board.PersistableEvent, error) {
	if err := board.Validate(e); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	undo, err := s.apply(ctx, e, true)
	if err != nil {
		return undo, err
	}
	if undo != nil {
		pe := e.(board.PersistableEvent)
		s.undo = s.capped(board.AppendHistory(s.undo, board.HistoryEntry{Event: pe, Undo: undo}))
		s.redo = nil
	}
	return undo, nil
}

// Receive applies an event from another participant. Remote events never
// touch the local undo/redo stacks.
func (s *Session) Receive(ctx context.Context, e board.Event) (board.PersistableEvent, error) {
	if err := board.Validate(e); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, e, false)
}

// Undo reverts the most recent local edit and returns the event it applied,
// so the caller can share it with other participants. Inverses that no longer
// change the board (their items were removed remotely) are discarded.
func (s *Session) Undo(ctx context.Context) (board.PersistableEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied, ok, err := s.step(ctx, &s.undo, &s.redo)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNothingToUndo
	}
	return applied, nil
}

// Redo reapplies the most recently undone edit and returns the event it applied.
func (s *Session) Redo(ctx context.Context) (board.PersistableEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied, ok, err := s.step(ctx, &s.redo, &s.undo)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNothingToRedo
	}
	return applied, nil
}

// step pops entries from one stack until one applies, and pushes the entry
// that reverses it onto the other. Must be called with s.mu held.
func (s *Session) step(ctx context.Context, from, to *[]board.HistoryEntry) (board.PersistableEvent, bool, error) {
	for len(*from) > 0 {
		top := (*from)[len(*from)-1]
		*from = (*from)[:len(*from)-1]

		inverse, err := s.apply(ctx, top.Undo, true)
		if err != nil {
			*from = append(*from, top)
			return nil, false, err
		}
		if inverse != nil {
			*to = s.capped(append(*to, board.HistoryEntry{Event: top.Undo, Undo: inverse}))
			return top.Undo, true, nil
		}
		s.logger.Printf("[DEBUG] Discarded stale %s on board %s", top.Undo.Action(), top.Undo.Board())
	}
	return nil, false, nil
}

// Run applies events from src in arrival order until ctx is cancelled or the
// source closes. Malformed messages reported by the source are logged and skipped.
func (s *Session) Run(ctx context.Context, src EventSource) error {
	events := src.Events()
	errs := src.Errors()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := s.Receive(ctx, e); err != nil {
				s.logger.Printf("[ERROR] Failed to apply %s: %v", e.Action(), err)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Printf("[WARN] Skipping event: %v", err)
		}
	}
}

// apply must be called with s.mu held.
func (s *Session) apply(ctx context.Context, e board.Event, local bool) (board.PersistableEvent, error) {
	if e.Board() != s.state.Board.ID {
		return nil, fmt.Errorf("event for board %s sent to session of board %s", e.Board(), s.state.Board.ID)
	}

	next, undo := board.ReduceWithHistory(s.state, e)
	locks := board.ReduceLocks(s.locks, e)

	boardChanged := next.Board != s.state.Board
	locksChanged := !locks.Equal(s.locks)
	if !boardChanged && !locksChanged {
		return nil, nil
	}

	next.History = board.TruncateHistory(next.History, s.opts.MaxHistory)
	if s.persister != nil {
		if err := s.persister.SaveState(ctx, next, locks); err != nil {
			return nil, fmt.Errorf("failed to persist board %s: %w", next.Board.ID, err)
		}
	}
	s.state, s.locks = next, locks

	s.notify(Applied{Event: e, Undo: undo, Local: local, History: len(next.History)})
	return undo, nil
}

func (s *Session) notify(a Applied) {
	if s.applied == nil {
		return
	}
	select {
	case s.applied <- a:
	default:
		s.logger.Printf("[WARN] Notification buffer full, dropping %s", a.Event.Action())
	}
}

func (s *Session) capped(stack []board.HistoryEntry) []board.HistoryEntry {
	if s.opts.MaxHistory > 0 && len(stack) > s.opts.MaxHistory {
		return stack[len(stack)-s.opts.MaxHistory:]
	}
	return stack
}
