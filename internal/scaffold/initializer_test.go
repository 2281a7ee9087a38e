package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dyluth/corkboard/internal/config"
	"github.com/dyluth/corkboard/pkg/board"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		force     bool
		setupFunc func(string)
		wantErr   bool
	}{
		{
			name:      "fresh initialization",
			force:     false,
			setupFunc: func(dir string) {},
			wantErr:   false,
		},
		{
			name:  "force initialization replaces existing config",
			force: true,
			setupFunc: func(dir string) {
				os.WriteFile(filepath.Join(dir, "corkboard.yml"), []byte("old content"), 0644)
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			tt.setupFunc(tmpDir)

			err := Initialize(tmpDir, tt.force)
			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			for _, path := range []string{"corkboard.yml", "boards/example.json", "boards/example-events.jsonl"} {
				if _, err := os.Stat(filepath.Join(tmpDir, path)); err != nil {
					t.Errorf("Expected file %s to exist, but got error: %v", path, err)
				}
			}

			cfg, err := config.Load(filepath.Join(tmpDir, "corkboard.yml"))
			if err != nil {
				t.Fatalf("created corkboard.yml does not load: %v", err)
			}
			if cfg.Instance != config.DefaultInstance {
				t.Errorf("instance = %q, expected %q", cfg.Instance, config.DefaultInstance)
			}
		})
	}
}

// TestExampleReplays checks the example event log applies cleanly to the example board
func TestExampleReplays(t *testing.T) {
	tmpDir := t.TempDir()
	if err := Initialize(tmpDir, false); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "boards", "example.json"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := board.DecodeBoard(data, nil)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(tmpDir, "boards", "example-events.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	var events []board.Event
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		e, err := board.UnmarshalEvent([]byte(line))
		if err != nil {
			t.Fatalf("UnmarshalEvent(%s) error = %v", line, err)
		}
		events = append(events, e)
	}

	state, _ := board.Replay(board.BoardWithHistory{Board: b}, events)
	if err := state.Board.Validate(); err != nil {
		t.Errorf("replayed board is invalid: %v", err)
	}
	if got := len(state.History); got != 6 {
		t.Errorf("history length = %d, expected 6", got)
	}
	if got := len(state.Board.Contained("went-well")); got != 2 {
		t.Errorf("went-well contains %d items, expected 2", got)
	}
}

func TestHandleForce(t *testing.T) {
	t.Run("removes existing corkboard.yml", func(t *testing.T) {
		tmpDir := t.TempDir()
		os.WriteFile(filepath.Join(tmpDir, "corkboard.yml"), []byte("content"), 0644)

		if err := handleForce(tmpDir); err != nil {
			t.Fatalf("handleForce() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(tmpDir, "corkboard.yml")); err == nil {
			t.Errorf("corkboard.yml should have been removed")
		}
	})

	t.Run("handles when files don't exist", func(t *testing.T) {
		if err := handleForce(t.TempDir()); err != nil {
			t.Errorf("handleForce() error = %v", err)
		}
	})
}

func TestGetTemplateFiles(t *testing.T) {
	files, err := getTemplateFiles()
	if err != nil {
		t.Fatalf("getTemplateFiles() error = %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("expected 3 template files, got %d", len(files))
	}
	for _, f := range files {
		if len(f.Content) == 0 {
			t.Errorf("template for %s is empty", f.Path)
		}
	}
}
