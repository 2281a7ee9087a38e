package watch

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dyluth/corkboard/internal/printer"
	"github.com/dyluth/corkboard/internal/session"
	"github.com/dyluth/corkboard/pkg/board"
)

// OutputFormat specifies how streamed activity is written.
type OutputFormat string

const (
	// OutputFormatDefault writes one human-readable line per event
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL writes each applied event in its wire form, one per line
	OutputFormatJSONL OutputFormat = "jsonl"
)

// notificationBuffer is sized for bursts such as a long drag arriving at once.
const notificationBuffer = 256

// Streamer is the part of *board.Client StreamActivity needs.
type Streamer interface {
	LoadState(ctx context.Context, boardID string) (board.BoardWithHistory, board.ItemLocks, error)
	SubscribeEvents(ctx context.Context, boardID string) (*board.Subscription, error)
}

// StreamActivity follows a board live and writes every event that changes it
// to w. It subscribes before loading the stored state so nothing published in
// between is lost; events already reflected in that state are no-ops.
// Returns nil when ctx is cancelled.
func StreamActivity(ctx context.Context, client Streamer, boardID string, format OutputFormat, w io.Writer) error {
	sub, err := client.SubscribeEvents(ctx, boardID)
	if err != nil {
		return err
	}
	defer sub.Close()

	state, locks, err := client.LoadState(ctx, boardID)
	if err != nil {
		if board.IsNotFound(err) {
			return fmt.Errorf("board %s not found", boardID)
		}
		return fmt.Errorf("failed to load board: %w", err)
	}

	sess := session.New(state, locks, nil, session.Options{Buffer: notificationBuffer})
	return Follow(ctx, sess, sub, format, w)
}

// Follow feeds events from src into sess and writes what they changed to w.
// Events that change nothing are not written.
func Follow(ctx context.Context, sess *session.Session, src session.EventSource, format OutputFormat, w io.Writer) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(runCtx, src)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-done:
			drain(sess, format, w)
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("event stream failed: %w", err)
			}
			return nil

		case a := <-sess.Applied():
			if err := writeApplied(w, a, format); err != nil {
				return err
			}
		}
	}
}

// drain writes notifications already queued when the source closed.
func drain(sess *session.Session, format OutputFormat, w io.Writer) {
	for {
		select {
		case a := <-sess.Applied():
			if err := writeApplied(w, a, format); err != nil {
				return
			}
		default:
			return
		}
	}
}

func writeApplied(w io.Writer, a session.Applied, format OutputFormat) error {
	switch format {
	case OutputFormatJSONL:
		data, err := board.MarshalEvent(a.Event)
		if err != nil {
			return fmt.Errorf("failed to marshal event to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	default:
		if _, err := fmt.Fprintf(w, "%s %s\n", printer.ActionTag(string(a.Event.Action())), FormatEvent(a)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// FormatEvent describes an applied event in one line. Like the reducer it
// panics on event types outside the board package's closed set.
func FormatEvent(a session.Applied) string {
	var msg string
	switch ev := a.Event.(type) {
	case board.AddItem:
		msg = "added " + describeIDs(board.TargetIDs(ev))
	case board.UpdateItem:
		msg = "updated " + describeIDs(board.TargetIDs(ev))
	case board.MoveItem:
		if len(ev.Items) == 1 {
			p := ev.Items[0]
			msg = fmt.Sprintf("moved %s to (%s, %s)", p.ID, formatNumber(p.X), formatNumber(p.Y))
		} else {
			msg = "moved " + describeIDs(board.TargetIDs(ev))
		}
	case board.DeleteItem:
		msg = "deleted " + describeIDs(ev.ItemIDs)
	case board.BringItemToFront:
		msg = "brought " + describeIDs(ev.ItemIDs) + " to front"
	case board.LockItem:
		msg = fmt.Sprintf("%s locked %s", ev.UserID, ev.ItemID)
	case board.UnlockItem:
		msg = "unlocked " + ev.ItemID
	case board.GotBoardLocks:
		msg = fmt.Sprintf("lock table replaced (%d locked)", len(ev.Locks))
	default:
		panic(fmt.Sprintf("watch: unhandled event type %T", a.Event))
	}

	if board.IsPersistable(a.Event) {
		msg += fmt.Sprintf(" [history %d]", a.History)
	}
	return msg
}

func describeIDs(ids []string) string {
	if len(ids) == 1 {
		return ids[0]
	}
	if len(ids) <= 3 {
		return fmt.Sprintf("%d items: %s", len(ids), strings.Join(ids, ", "))
	}
	return fmt.Sprintf("%d items: %s, ...", len(ids), strings.Join(ids[:3], ", "))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
