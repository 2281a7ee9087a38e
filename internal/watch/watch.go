package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/corkboard/pkg/board"
)

// BoardChecker is the part of *board.Client PollForBoard needs.
type BoardChecker interface {
	BoardExists(ctx context.Context, boardID string) (bool, error)
}

// PollForBoard polls until a board with the given id exists.
// Returns an error if the timeout expires or the context is cancelled first.
// Polls every 200ms for the specified timeout duration.
func PollForBoard(ctx context.Context, client BoardChecker, boardID string, timeout time.Duration) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		exists, err := client.BoardExists(ctx, boardID)
		if err != nil {
			return fmt.Errorf("failed to query for board: %w", err)
		}
		if exists {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timeoutCh:
			return fmt.Errorf("timeout waiting for board %s after %v", boardID, timeout)

		case <-ticker.C:
		}
	}
}

// ensure *board.Client satisfies the interfaces used here
var (
	_ BoardChecker = (*board.Client)(nil)
	_ Streamer     = (*board.Client)(nil)
)
