package commands

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dyluth/corkboard/internal/inspect"
	"github.com/dyluth/corkboard/internal/printer"
	"github.com/dyluth/corkboard/internal/session"
	"github.com/dyluth/corkboard/pkg/board"
	"github.com/spf13/cobra"
)

var (
	replayOutputFormat string
	replayHistory      bool
	replayMaxDepth     int
)

var replayCmd = &cobra.Command{
	Use:   "replay BOARD_FILE EVENTS_FILE",
	Short: "Apply an event log to a board file offline",
	Long: `Apply a JSONL event log to a board document without touching Redis.

The board file may be a current or legacy board document; legacy documents
are migrated on load. Events are applied in file order exactly as a live
participant would apply them. Use "-" as EVENTS_FILE to read from stdin.

Output Formats:
  default - Human-readable table of the resulting items (or history)
  jsonl   - Line-delimited JSON items (or history entries)
  json    - The resulting board document

Examples:
  # Replay the example created by 'corkboard init'
  corkboard replay boards/example.json boards/example-events.jsonl

  # Write the resulting board to a file
  corkboard replay board.json events.jsonl -o json > result.json

  # Replay a recorded session and inspect its history
  corkboard watch retro -o jsonl > retro.jsonl
  corkboard replay retro.json retro.jsonl --history`,
	Args: cobra.ExactArgs(2),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayOutputFormat, "output", "o", "default", "Output format: default, jsonl or json")
	replayCmd.Flags().BoolVar(&replayHistory, "history", false, "Show the resulting history instead of the items")
	replayCmd.Flags().IntVar(&replayMaxDepth, "max-depth", -1, "History depth (0 = unlimited, default from corkboard.yml)")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	outputFormat, err := parseInspectFormat(replayOutputFormat)
	if err != nil {
		return err
	}

	maxDepth := replayMaxDepth
	if maxDepth < 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		maxDepth = *cfg.History.MaxDepth
	}

	b, err := readBoardFile(args[0], printer.Warnings{})
	if err != nil {
		return printer.Error("invalid board file", err.Error(), nil)
	}

	events, err := readEventsFile(args[1])
	if err != nil {
		return printer.Error("invalid events file", err.Error(), nil)
	}

	state, locks, skipped, err := replayEvents(context.Background(), b, events, maxDepth, log.New(os.Stderr, "", log.LstdFlags))
	if err != nil {
		return printer.Error("replay failed", err.Error(), nil)
	}

	view := inspect.ViewItems
	if replayHistory {
		view = inspect.ViewHistory
	}
	if err := inspect.Render(state, locks, inspect.ShowOptions{Format: outputFormat, View: view}, os.Stdout); err != nil {
		return err
	}

	if outputFormat == inspect.OutputFormatDefault {
		printer.Info("\nReplayed %d events (%d had no effect)\n", len(events), skipped)
	}
	return nil
}

// replayEvents applies events to b through a session that is never persisted.
// Returns the final state, the lock table and how many events were no-ops.
func replayEvents(ctx context.Context, b *board.Board, events []board.Event, maxDepth int, logger board.Logger) (board.BoardWithHistory, board.ItemLocks, int, error) {
	sess := session.New(board.BoardWithHistory{Board: b}, nil, nil, session.Options{MaxHistory: maxDepth, Logger: logger})

	before, beforeLocks := sess.Snapshot()
	skipped := 0
	for i, e := range events {
		if _, err := sess.Receive(ctx, e); err != nil {
			return board.BoardWithHistory{}, nil, 0, fmt.Errorf("event %d (%s): %w", i+1, e.Action(), err)
		}
		after, afterLocks := sess.Snapshot()
		if after.Board == before.Board && afterLocks.Equal(beforeLocks) {
			skipped++
		}
		before, beforeLocks = after, afterLocks
	}

	state, locks := sess.Snapshot()
	return state, locks, skipped, nil
}
