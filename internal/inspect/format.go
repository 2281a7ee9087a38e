package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dyluth/corkboard/internal/filter"
	"github.com/dyluth/corkboard/pkg/board"
)

// FormatItemsTable writes items as a formatted table to the provided writer.
// The table includes columns: ID, TYPE, X, Y, SIZE, CONTAINER, LOCK and TEXT (truncated).
// Container references are resolved through b. Returns the number of items formatted.
func FormatItemsTable(w io.Writer, b *board.Board, locks board.ItemLocks, items []board.Item) int {
	if len(items) == 0 {
		fmt.Fprintf(w, "No items found on board '%s'\n", b.ID)
		return 0
	}

	fmt.Fprintf(w, "Board '%s' (%s, %sx%s):\n\n", b.Name, b.ID, formatNumber(b.Width), formatNumber(b.Height))

	fmt.Fprintf(w, "%-10s %-9s %-7s %-7s %-9s %-10s %-10s %s\n",
		"ID", "TYPE", "X", "Y", "SIZE", "CONTAINER", "LOCK", "TEXT")
	fmt.Fprintf(w, "%-10s %-9s %-7s %-7s %-9s %-10s %-10s %s\n",
		"----------", "---------", "-------", "-------", "---------", "----------", "----------", "----------------------------------------")

	for _, it := range items {
		bounds := it.ItemBounds()
		fmt.Fprintf(w, "%-10s %-9s %-7s %-7s %-9s %-10s %-10s %s\n",
			formatID(it.ItemID()),
			it.Type(),
			formatNumber(bounds.X),
			formatNumber(bounds.Y),
			formatNumber(bounds.Width)+"x"+formatNumber(bounds.Height),
			formatContainer(b, it),
			formatLock(locks, it.ItemID()),
			formatText(filter.TextOf(it)),
		)
	}

	countMsg := "item"
	if len(items) != 1 {
		countMsg = "items"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(items), countMsg)

	return len(items)
}

// FormatHistoryTable writes a board's history as a table, oldest step first.
// Each row shows the forward action, the items it touched and the action that undoes it.
// Returns the number of entries formatted.
func FormatHistoryTable(w io.Writer, boardID string, history []board.HistoryEntry) int {
	if len(history) == 0 {
		fmt.Fprintf(w, "No history for board '%s'\n", boardID)
		return 0
	}

	fmt.Fprintf(w, "History for board '%s':\n\n", boardID)

	fmt.Fprintf(w, "%-4s %-12s %-12s %s\n", "#", "ACTION", "UNDO", "ITEMS")
	fmt.Fprintf(w, "%-4s %-12s %-12s %s\n", "----", "------------", "------------", "----------------------------------------")

	for i, entry := range history {
		fmt.Fprintf(w, "%-4d %-12s %-12s %s\n",
			i+1,
			entry.Event.Action(),
			formatUndo(entry.Undo),
			formatTargets(board.TargetIDs(entry.Event)),
		)
	}

	countMsg := "step"
	if len(history) != 1 {
		countMsg = "steps"
	}
	fmt.Fprintf(w, "\n%d %s\n", len(history), countMsg)

	return len(history)
}

// FormatItemsJSONL writes items as line-delimited JSON (JSONL) in the wire item format.
// This format is ideal for streaming and processing with tools like jq.
func FormatItemsJSONL(w io.Writer, items []board.Item) error {
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("failed to marshal item to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatHistoryJSONL writes history entries as line-delimited JSON, one
// {"event": ..., "undo": ...} object per line.
func FormatHistoryJSONL(w io.Writer, history []board.HistoryEntry) error {
	for _, entry := range history {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal history entry to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes a whole board document as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, b *board.Board) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal board to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)

	return nil
}

// formatID truncates ids to the first 8 characters for compact display.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatNumber prints coordinates without trailing zeros ("12", "12.5").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatContainer shows the resolved container of an item, or "-".
// A reference that does not resolve on the board shows as "?".
func formatContainer(b *board.Board, it board.Item) string {
	ce, ok := it.(board.Containee)
	if !ok || ce.Container() == "" {
		return "-"
	}
	if _, ok := b.ContainerOf(it); !ok {
		return "?"
	}
	return formatID(ce.Container())
}

func formatLock(locks board.ItemLocks, id string) string {
	if user, ok := locks[id]; ok {
		return user
	}
	return "-"
}

// formatText truncates text to its first non-empty line with max 40 characters.
// Empty text returns "-".
func formatText(text string) string {
	var firstLine string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			firstLine = trimmed
			break
		}
	}

	if firstLine == "" {
		return "-"
	}
	if len(firstLine) > 40 {
		return firstLine[:37] + "..."
	}
	return firstLine
}

func formatUndo(undo board.PersistableEvent) string {
	if undo == nil {
		return "-"
	}
	return string(undo.Action())
}

// formatTargets lists up to three short ids, then a count of the rest.
func formatTargets(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	shown := ids
	if len(shown) > 3 {
		shown = shown[:3]
	}
	short := make([]string, len(shown))
	for i, id := range shown {
		short[i] = formatID(id)
	}
	out := strings.Join(short, ", ")
	if len(ids) > 3 {
		out += fmt.Sprintf(" (+%d more)", len(ids)-3)
	}
	return out
}
