package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dyluth/corkboard/internal/config"
	"github.com/dyluth/corkboard/internal/printer"
	"github.com/dyluth/corkboard/internal/resolver"
	"github.com/dyluth/corkboard/pkg/board"
)

// loadConfig reads the configuration file and applies the global flag overrides.
func loadConfig() (*config.CorkboardConfig, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{fmt.Sprintf("Fix %s or regenerate it:\n  corkboard init --force", configPath)},
		)
	}

	if instanceOverride != "" {
		cfg.Instance = instanceOverride
	}
	if redisURLOverride != "" {
		cfg.Redis.URL = redisURLOverride
	}
	if instanceOverride != "" || redisURLOverride != "" {
		if err := cfg.Validate(); err != nil {
			return nil, printer.Error("invalid flags", err.Error(), nil)
		}
	}

	return cfg, nil
}

// connect creates a board client for the configured instance and verifies
// Redis is reachable.
func connect(ctx context.Context, cfg *config.CorkboardConfig) (*board.Client, error) {
	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}

	client, err := board.NewClient(redisOpts, cfg.Instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create board client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.Redis.URL),
			map[string]string{"instance": cfg.Instance},
			[]string{
				fmt.Sprintf("Check redis.url in %s", configPath),
				"Pass a different server:\n  corkboard --redis-url redis://host:6379 ...",
			},
		)
	}

	return client, nil
}

// resolveBoard turns a board id or unique prefix into a full board id,
// printing friendly errors when it cannot.
func resolveBoard(ctx context.Context, client *board.Client, cfg *config.CorkboardConfig, shortID string) (string, error) {
	fullID, err := resolver.ResolveBoardID(ctx, client, shortID)
	if err == nil {
		return fullID, nil
	}

	if resolver.IsNotFoundError(err) {
		return "", printer.Error(
			fmt.Sprintf("board '%s' not found", shortID),
			err.Error(),
			[]string{
				fmt.Sprintf("Verify the instance:\n  corkboard show --name %s %s", cfg.Instance, shortID),
				"Load a board from a file:\n  corkboard load boards/example.json",
			},
		)
	}
	if resolver.IsAmbiguousError(err) {
		ambigErr := err.(*resolver.AmbiguousError)
		fmt.Fprintln(os.Stderr, resolver.FormatAmbiguousError(ambigErr))
		return "", fmt.Errorf("ambiguous short ID")
	}
	return "", fmt.Errorf("failed to resolve board ID: %w", err)
}
