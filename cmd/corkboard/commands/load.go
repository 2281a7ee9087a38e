package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/corkboard/internal/printer"
	"github.com/dyluth/corkboard/pkg/board"
	"github.com/spf13/cobra"
)

var (
	forceLoad bool
)

var loadCmd = &cobra.Command{
	Use:   "load BOARD_FILE",
	Short: "Store a board document in Redis",
	Long: `Store a board document in Redis so participants can join it.

The document may be current or legacy; legacy documents are migrated before
they are stored. Loading starts the board with an empty history and no locks.

Use --force to replace a board that already exists (its history and locks are cleared).

Examples:
  corkboard load boards/example.json
  corkboard load --name staging retro.json --force`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&forceLoad, "force", false, "Replace the board if it already exists")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	b, err := readBoardFile(args[0], printer.Warnings{})
	if err != nil {
		return printer.Error("invalid board file", err.Error(), nil)
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

	printer.Step("Storing board %s\n", b.ID)
	if err := storeBoard(ctx, client, b, forceLoad); err != nil {
		return err
	}

	printer.Success("Stored board '%s' (%s) with %d items on instance %s\n", b.Name, b.ID, len(b.Items), cfg.Instance)
	return nil
}

// storeBoard writes b with an empty history and lock table. Existing boards
// are only replaced when force is set.
func storeBoard(ctx context.Context, client *board.Client, b *board.Board, force bool) error {
	if !force {
		exists, err := client.BoardExists(ctx, b.ID)
		if err != nil {
			return err
		}
		if exists {
			return printer.Error(
				fmt.Sprintf("board '%s' already exists", b.ID),
				"Loading would discard the stored board, its history and its locks.",
				[]string{"Replace it anyway:\n  corkboard load --force " + b.ID},
			)
		}
	}

	if err := client.SaveState(ctx, board.BoardWithHistory{Board: b}, nil); err != nil {
		return fmt.Errorf("failed to store board: %w", err)
	}
	return nil
}
