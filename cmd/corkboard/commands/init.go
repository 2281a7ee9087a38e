package commands

import (
	"fmt"
	"os"

	"github.com/dyluth/corkboard/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new corkboard project",
	Long: `Initialize a new corkboard project with default configuration and an example board.

Creates:
  • corkboard.yml - Project configuration file
  • boards/example.json - Example retrospective board
  • boards/example-events.jsonl - Event log that edits the example board

Use --force to reinitialize an existing project (WARNING: overwrites existing configuration).`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	// Note: Cannot use -f shorthand because it conflicts with global --config flag
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (overwrites corkboard.yml and the example board)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	// Check for existing files (unless --force)
	if !forceInit {
		if err := scaffold.CheckExisting(dir); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(dir, forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess()
	return nil
}
