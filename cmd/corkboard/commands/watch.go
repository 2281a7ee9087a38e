package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/corkboard/internal/printer"
	"github.com/dyluth/corkboard/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchWait         time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch BOARD_ID",
	Short: "Monitor real-time board activity",
	Long: `Monitor a board's live activity.

Streams every edit and lock change published to the board as it happens,
applying each to a local copy of the board so only events that change it
are shown. Stops on Ctrl-C.

Output Formats:
  default - Human-readable output, one line per event
  jsonl   - Line-delimited JSON events in wire format

Examples:
  # Watch a board
  corkboard watch retro

  # Wait up to a minute for a board to be created, then watch it
  corkboard watch retro --wait 1m

  # Record events for a later replay
  corkboard watch retro -o jsonl > retro-events.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or jsonl)")
	watchCmd.Flags().DurationVar(&watchWait, "wait", 0, "Wait this long for the board to exist (exact id only)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "jsonl":
		outputFormat = watch.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	boardID := args[0]
	if watchWait > 0 {
		if err := watch.PollForBoard(ctx, client, boardID, watchWait); err != nil {
			return printer.Error(
				fmt.Sprintf("board '%s' did not appear", boardID),
				err.Error(),
				[]string{"Check the board id, or wait longer with --wait"},
			)
		}
	} else {
		boardID, err = resolveBoard(ctx, client, cfg, boardID)
		if err != nil {
			return err
		}
	}

	if outputFormat == watch.OutputFormatDefault {
		printer.Header("Watching board %s on instance %s (Ctrl-C to stop)", boardID, cfg.Instance)
	}

	return watch.StreamActivity(ctx, client, boardID, outputFormat, os.Stdout)
}
