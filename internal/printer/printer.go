package printer

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	// Color definitions
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)

	// Event action colors, keyed by action name
	actionColors = map[string]*color.Color{
		"item.add":    color.New(color.FgGreen),
		"item.update": color.New(color.FgCyan),
		"item.move":   color.New(color.FgBlue),
		"item.front":  color.New(color.FgMagenta),
		"item.delete": color.New(color.FgRed),
		"item.lock":   color.New(color.FgYellow),
		"item.unlock": color.New(color.FgYellow),
		"board.locks": color.New(color.FgYellow),
	}
)

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Printf("✓ %s", msg)
	} else {
		green.Print(msg)
	}
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix to
// stderr, so it never mixes with machine-readable output on stdout
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Fprintf(os.Stderr, "⚠️  %s", msg)
	} else {
		yellow.Fprint(os.Stderr, msg)
	}
}

// Warnings routes "[WARN] ..." log lines, such as those written while
// migrating legacy boards, through Warning.
type Warnings struct{}

// Printf satisfies board.Logger.
func (Warnings) Printf(format string, a ...any) {
	msg := strings.TrimPrefix(fmt.Sprintf(format, a...), "[WARN] ")
	Warning("%s\n", strings.TrimSuffix(msg, "\n"))
}

// Error creates a formatted error message with title, explanation, and suggestions
// Prints the formatted error to stderr with colors and returns a simple error for Cobra
func Error(title string, explanation string, suggestions []string) error {
	// Print title in red to stderr
	red.Fprintf(os.Stderr, "%s\n\n", title)

	// Print explanation
	fmt.Fprintf(os.Stderr, "%s\n", explanation)

	// Print suggestions
	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

// ErrorWithContext creates a formatted error with context details
// Prints the formatted error to stderr with colors and returns a simple error for Cobra
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	// Print title in red to stderr
	red.Fprintf(os.Stderr, "%s\n\n", title)

	// Print explanation
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}

	// Print context details
	if len(context) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		for key, value := range context {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", key, value)
		}
	}

	// Print suggestions
	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Printf("→ %s", fmt.Sprintf(format, a...))
}

// ActionTag returns action padded to a fixed width and colored by kind of edit.
// Unknown actions are left uncolored.
func ActionTag(action string) string {
	padded := fmt.Sprintf("%-11s", action)
	if c, ok := actionColors[action]; ok {
		return c.Sprint(padded)
	}
	return padded
}

// Header prints a bold section header followed by a blank line
func Header(format string, a ...any) {
	bold.Printf("%s\n\n", fmt.Sprintf(format, a...))
}
