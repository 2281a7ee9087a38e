package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyluth/corkboard/internal/config"
	"github.com/dyluth/corkboard/internal/printer"
	"github.com/dyluth/corkboard/internal/session"
	"github.com/dyluth/corkboard/pkg/board"
	"github.com/spf13/cobra"
)

var (
	publishUndo int
)

var publishCmd = &cobra.Command{
	Use:   "publish BOARD_ID EVENTS_FILE",
	Short: "Apply events to a stored board and broadcast them",
	Long: `Apply a JSONL event log to a stored board as a participant would.

Each event is applied to the board, the new state is written back to Redis
and the event is published to everyone watching the board. Events that do
not change the board are neither stored nor published. Every event must
target BOARD_ID. Use "-" as EVENTS_FILE to read from stdin.

--undo N then undoes the last N steps of this run, publishing each inverse.
Consecutive moves or edits of the same items count as one step.

Examples:
  corkboard publish retro edits.jsonl
  corkboard publish retro edits.jsonl --undo 1`,
	Args: cobra.ExactArgs(2),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().IntVar(&publishUndo, "undo", 0, "Undo this many steps after publishing")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	events, err := readEventsFile(args[1])
	if err != nil {
		return printer.Error("invalid events file", err.Error(), nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	printer.Step("Connecting to instance %s\n", cfg.Instance)
	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	boardID, err := resolveBoard(ctx, client, cfg, args[0])
	if err != nil {
		return err
	}

	printer.Step("Applying %d events to board %s\n", len(events), boardID)

	result, err := publishEvents(ctx, client, cfg, boardID, events, publishUndo)
	if err != nil {
		return printer.Error("publish failed", err.Error(), nil)
	}

	printer.Success("Published %d of %d events to board %s (%d undone)\n", result.published, len(events), boardID, result.undone)
	return nil
}

type publishResult struct {
	published int
	undone    int
}

// publishEvents applies events through a session persisted to client and
// publishes every effective event, then undoes up to undo steps.
func publishEvents(ctx context.Context, client *board.Client, cfg *config.CorkboardConfig, boardID string, events []board.Event, undo int) (publishResult, error) {
	var result publishResult

	state, locks, err := client.LoadState(ctx, boardID)
	if err != nil {
		return result, fmt.Errorf("failed to load board: %w", err)
	}

	sess := session.New(state, locks, client, session.Options{MaxHistory: *cfg.History.MaxDepth})

	for i, e := range events {
		if e.Board() != boardID {
			return result, fmt.Errorf("event %d targets board %s, not %s", i+1, e.Board(), boardID)
		}

		before, beforeLocks := sess.Snapshot()
		if _, err := sess.Apply(ctx, e); err != nil {
			return result, fmt.Errorf("event %d (%s): %w", i+1, e.Action(), err)
		}
		after, afterLocks := sess.Snapshot()
		if after.Board == before.Board && afterLocks.Equal(beforeLocks) {
			continue
		}

		if err := client.PublishEvent(ctx, e); err != nil {
			return result, err
		}
		result.published++
	}

	for result.undone < undo {
		inverse, err := sess.Undo(ctx)
		if errors.Is(err, session.ErrNothingToUndo) {
			printer.Warning("Only %d steps could be undone\n", result.undone)
			break
		}
		if err != nil {
			return result, fmt.Errorf("undo failed: %w", err)
		}
		if err := client.PublishEvent(ctx, inverse); err != nil {
			return result, err
		}
		result.undone++
	}

	return result, nil
}
