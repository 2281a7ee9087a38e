package commands

import (
	"fmt"

	"github.com/dyluth/corkboard/internal/config"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// Global flags
var (
	configPath       string
	instanceOverride string
	redisURLOverride string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "corkboard",
	Short: "Corkboard - collaborative whiteboard state tools",
	Long: `Corkboard keeps collaborative whiteboards consistent.

Boards are stored in Redis and every edit is broadcast to the board's
participants as an event. The corkboard CLI inspects stored boards, follows
live activity, replays event logs offline and publishes edits.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", config.DefaultFileName, "Path to corkboard.yml (defaults apply if it does not exist)")
	rootCmd.PersistentFlags().StringVarP(&instanceOverride, "name", "n", "", "Instance name (overrides corkboard.yml)")
	rootCmd.PersistentFlags().StringVar(&redisURLOverride, "redis-url", "", "Redis URL (overrides corkboard.yml)")
}
