package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dyluth/corkboard/pkg/board"
)

// maxEventLine bounds a single JSONL line; AddItem events can carry many items.
const maxEventLine = 4 * 1024 * 1024

// readEvents decodes a JSONL event log. Blank lines and lines starting with
// '#' are skipped.
func readEvents(r io.Reader) ([]board.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEventLine)

	var events []board.Event
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		e, err := board.UnmarshalEvent([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := board.Validate(e); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return events, nil
}

// readEventsFile reads a JSONL event log from path, or stdin when path is "-".
func readEventsFile(path string) ([]board.Event, error) {
	if path == "-" {
		return readEvents(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer f.Close()

	return readEvents(f)
}

// readBoardFile decodes and normalizes a board document from path.
func readBoardFile(path string, logger board.Logger) (*board.Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board file: %w", err)
	}

	b, err := board.DecodeBoard(data, logger)
	if err != nil {
		return nil, err
	}
	if !b.IsFullyFormed() {
		return nil, fmt.Errorf("board in %s is missing an id or name", path)
	}
	return b, nil
}
