package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dyluth/corkboard/internal/filter"
	"github.com/dyluth/corkboard/internal/inspect"
	"github.com/dyluth/corkboard/internal/printer"
	"github.com/spf13/cobra"
)

var (
	showOutputFormat string
	showHistory      bool
	showType         string
	showContainer    string
	showText         string
	showLockedBy     string
)

var showCmd = &cobra.Command{
	Use:   "show BOARD_ID",
	Short: "Inspect a stored board with filtering",
	Long: `Inspect a board stored in Redis.

Items Mode (default):
  Displays the board's items in z-order (topmost last) as a table or JSONL stream.

History Mode (--history):
  Displays the board's undoable steps, oldest first, with the action that undoes each.

Supports short IDs (e.g., "550e84" instead of the full board id).

Output Formats:
  default - Human-readable table
  jsonl   - Line-delimited JSON, one item or history entry per line
  json    - The whole board document, pretty-printed

Item Filters (items mode only):
  --type       - Filter by item type (glob pattern: "note", "c*")
  --container  - Items inside this container
  --text       - Case-insensitive text search
  --locked-by  - Items locked by this user

Examples:
  # Show all items
  corkboard show 550e8400

  # Notes inside a container, as JSONL for piping to jq
  corkboard show retro --type=note --container=went-well -o jsonl | jq .text

  # Show the history
  corkboard show retro --history`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutputFormat, "output", "o", "default", "Output format: default, jsonl or json")
	showCmd.Flags().BoolVar(&showHistory, "history", false, "Show the board's history instead of its items")

	showCmd.Flags().StringVar(&showType, "type", "", "Filter by item type (glob pattern)")
	showCmd.Flags().StringVar(&showContainer, "container", "", "Filter by container id (exact match)")
	showCmd.Flags().StringVar(&showText, "text", "", "Filter by text (case-insensitive substring)")
	showCmd.Flags().StringVar(&showLockedBy, "locked-by", "", "Filter by lock holder (exact match)")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	outputFormat, err := parseInspectFormat(showOutputFormat)
	if err != nil {
		return err
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

	boardID, err := resolveBoard(ctx, client, cfg, args[0])
	if err != nil {
		return err
	}

	opts := inspect.ShowOptions{
		Format: outputFormat,
		View:   inspect.ViewItems,
		Criteria: &filter.Criteria{
			TypeGlob:    showType,
			ContainerID: showContainer,
			Text:        showText,
			LockedBy:    showLockedBy,
		},
	}
	if showHistory {
		opts.View = inspect.ViewHistory
	}

	if err := inspect.ShowBoard(ctx, client, boardID, opts, os.Stdout); err != nil {
		if inspect.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("board with ID '%s' not found", boardID),
				"The board was resolved but could not be fetched.",
				[]string{"This might indicate a race condition. Try again."},
			)
		}
		return fmt.Errorf("failed to show board: %w", err)
	}

	return nil
}

func parseInspectFormat(s string) (inspect.OutputFormat, error) {
	switch s {
	case "default":
		return inspect.OutputFormatDefault, nil
	case "jsonl":
		return inspect.OutputFormatJSONL, nil
	case "json":
		return inspect.OutputFormatJSON, nil
	default:
		return "", printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", s),
			[]string{"Valid formats: default, jsonl, json"},
		)
	}
}
