package resolver

import (
	"context"
	"errors"
	"fmt"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
// Set to 6 characters to balance usability with collision avoidance.
const MinShortIDLength = 6

// BoardLister is the part of *board.Client the resolver needs.
type BoardLister interface {
	BoardExists(ctx context.Context, boardID string) (bool, error)
	ScanBoards(ctx context.Context, prefix string) ([]string, error)
}

// ResolveBoardID resolves a board id or a unique id prefix to the full id.
//
// The function handles three cases:
// 1. A board with exactly this id exists - returned as-is
// 2. Input is too short (< 6 chars) - returns validation error
// 3. Input is a prefix - scans for matches and returns the unique result
func ResolveBoardID(ctx context.Context, client BoardLister, shortID string) (string, error) {
	if shortID == "" {
		return "", fmt.Errorf("board ID cannot be empty")
	}

	exists, err := client.BoardExists(ctx, shortID)
	if err != nil {
		return "", fmt.Errorf("failed to verify board existence: %w", err)
	}
	if exists {
		return shortID, nil
	}

	if len(shortID) < MinShortIDLength {
		return "", &NotFoundError{ShortID: shortID}
	}

	matches, err := client.ScanBoards(ctx, shortID)
	if err != nil {
		return "", fmt.Errorf("failed to search for board: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no boards matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	if len(e.ShortID) < MinShortIDLength {
		return fmt.Sprintf("no board '%s' (prefixes must be at least %d characters)", e.ShortID, MinShortIDLength)
	}
	return fmt.Sprintf("no boards found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple boards matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d boards", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous short IDs.
// Lists all matching ids (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous short ID '%s' matches %d boards:\n", err.ShortID, len(err.Matches))

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}

	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix to uniquely identify the board."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var target *AmbiguousError
	return errors.As(err, &target)
}
