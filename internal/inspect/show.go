package inspect

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/corkboard/internal/filter"
	"github.com/dyluth/corkboard/pkg/board"
)

// OutputFormat specifies how to format board output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated text
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete items or history entries as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"

	// OutputFormatJSON outputs the whole board document as pretty-printed JSON
	OutputFormatJSON OutputFormat = "json"
)

// View selects what part of a board ShowBoard prints.
type View string

const (
	// ViewItems prints the board's items in z-order
	ViewItems View = "items"

	// ViewHistory prints the board's folded history
	ViewHistory View = "history"
)

// StateLoader is the part of *board.Client ShowBoard needs.
type StateLoader interface {
	LoadState(ctx context.Context, boardID string) (board.BoardWithHistory, board.ItemLocks, error)
}

// ShowOptions controls ShowBoard output.
type ShowOptions struct {
	Format   OutputFormat
	View     View
	Criteria *filter.Criteria
}

// ShowBoard loads a board and writes it to w.
// Filter criteria only apply to the items view.
func ShowBoard(ctx context.Context, client StateLoader, boardID string, opts ShowOptions, w io.Writer) error {
	state, locks, err := client.LoadState(ctx, boardID)
	if err != nil {
		if board.IsNotFound(err) {
			return &BoardNotFoundError{BoardID: boardID}
		}
		return fmt.Errorf("failed to fetch board: %w", err)
	}

	return Render(state, locks, opts, w)
}

// Render writes an already loaded board. Used for offline replays as well as ShowBoard.
func Render(state board.BoardWithHistory, locks board.ItemLocks, opts ShowOptions, w io.Writer) error {
	if opts.Format == "" {
		opts.Format = OutputFormatDefault
	}
	if opts.View == "" {
		opts.View = ViewItems
	}

	if opts.Format == OutputFormatJSON {
		return FormatSingleJSON(w, state.Board)
	}

	switch opts.View {
	case ViewItems:
		items := state.Board.Items
		if opts.Criteria != nil {
			items = opts.Criteria.Apply(state.Board, locks)
		}
		switch opts.Format {
		case OutputFormatDefault:
			FormatItemsTable(w, state.Board, locks, items)
		case OutputFormatJSONL:
			if err := FormatItemsJSONL(w, items); err != nil {
				return fmt.Errorf("failed to format JSONL output: %w", err)
			}
		default:
			return fmt.Errorf("unknown output format: %s", opts.Format)
		}
	case ViewHistory:
		switch opts.Format {
		case OutputFormatDefault:
			FormatHistoryTable(w, state.Board.ID, state.History)
		case OutputFormatJSONL:
			if err := FormatHistoryJSONL(w, state.History); err != nil {
				return fmt.Errorf("failed to format JSONL output: %w", err)
			}
		default:
			return fmt.Errorf("unknown output format: %s", opts.Format)
		}
	default:
		return fmt.Errorf("unknown view: %s", opts.View)
	}

	return nil
}

// BoardNotFoundError represents a specific "board not found" error.
// This allows callers to distinguish not-found errors from other failures.
type BoardNotFoundError struct {
	BoardID string
}

func (e *BoardNotFoundError) Error() string {
	return fmt.Sprintf("board with ID '%s' not found", e.BoardID)
}

// IsNotFound returns true if the error is a BoardNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*BoardNotFoundError)
	return ok
}
