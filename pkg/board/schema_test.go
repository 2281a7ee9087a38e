package board

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

// TestBoardKey tests board key generation
func TestBoardKey(t *testing.T) {
	boardID := uuid.New().String()

	key := BoardKey("default-1", boardID)

	expected := "corkboard:default-1:board:" + boardID
	if key != expected {
		t.Errorf("BoardKey() = %q, expected %q", key, expected)
	}
	if !strings.HasPrefix(key, "corkboard:") {
		t.Error("board key should start with 'corkboard:'")
	}
}

// TestBoardScopedKeys tests that per-board keys share the board key prefix
func TestBoardScopedKeys(t *testing.T) {
	boardID := uuid.New().String()
	base := BoardKey("myproject", boardID)

	tests := []struct {
		name   string
		key    string
		suffix string
	}{
		{"history", HistoryKey("myproject", boardID), ":history"},
		{"locks", LocksKey("myproject", boardID), ":locks"},
		{"events", BoardEventsChannel("myproject", boardID), ":events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key != base+tt.suffix {
				t.Errorf("key = %q, expected %q", tt.key, base+tt.suffix)
			}
		})
	}
}

// TestBoardKeyPattern tests the SCAN pattern for board ids
func TestBoardKeyPattern(t *testing.T) {
	if got := BoardKeyPattern("prod", "ab12"); got != "corkboard:prod:board:ab12*" {
		t.Errorf("BoardKeyPattern() = %q", got)
	}
	if got := BoardKeyPattern("prod", ""); got != "corkboard:prod:board:*" {
		t.Errorf("BoardKeyPattern() with empty prefix = %q", got)
	}
}

// TestInstanceIsolation verifies different instances never share keys
func TestInstanceIsolation(t *testing.T) {
	boardID := uuid.New().String()
	if BoardKey("a", boardID) == BoardKey("b", boardID) {
		t.Error("board keys for different instances must differ")
	}
	if BoardEventsChannel("a", boardID) == BoardEventsChannel("b", boardID) {
		t.Error("event channels for different instances must differ")
	}
}
