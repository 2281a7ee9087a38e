package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyluth/corkboard/internal/config"
	"github.com/dyluth/corkboard/pkg/board"
)

//go:embed templates/*
var templatesFS embed.FS

// BoardsDir holds the example board and its event log
const BoardsDir = "boards"

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize creates corkboard.yml and an example board under dir.
// If force is true, existing files are overwritten.
func Initialize(dir string, force bool) error {
	if force {
		if err := handleForce(dir); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, BoardsDir), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", BoardsDir, err)
	}

	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	return validateCreatedFiles(dir)
}

// handleForce removes the files a previous init created
func handleForce(dir string) error {
	configPath := filepath.Join(dir, config.DefaultFileName)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("⚠️  Removing existing %s...\n", config.DefaultFileName)
		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultFileName, err)
		}
	}
	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles() ([]FileInfo, error) {
	templates := []struct {
		name string
		path string
	}{
		{"corkboard.yml.tmpl", config.DefaultFileName},
		{"example-board.json.tmpl", filepath.Join(BoardsDir, "example.json")},
		{"example-events.jsonl.tmpl", filepath.Join(BoardsDir, "example-events.jsonl")},
	}

	files := make([]FileInfo, 0, len(templates))
	for _, tmpl := range templates {
		content, err := templatesFS.ReadFile("templates/" + tmpl.name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", tmpl.path, err)
		}
		files = append(files, FileInfo{Path: tmpl.path, Content: content, Permissions: 0644})
	}

	return files, nil
}

// validateCreatedFiles checks the written config loads and the example board
// and events decode.
func validateCreatedFiles(dir string) error {
	if _, err := config.Load(filepath.Join(dir, config.DefaultFileName)); err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.DefaultFileName, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, BoardsDir, "example.json"))
	if err != nil {
		return fmt.Errorf("failed to read created example board: %w", err)
	}
	b, err := board.DecodeBoard(data, nil)
	if err != nil {
		return fmt.Errorf("created example board is invalid: %w", err)
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("created example board is invalid: %w", err)
	}

	events, err := os.ReadFile(filepath.Join(dir, BoardsDir, "example-events.jsonl"))
	if err != nil {
		return fmt.Errorf("failed to read created example events: %w", err)
	}
	for i, line := range strings.Split(strings.TrimSpace(string(events)), "\n") {
		if _, err := board.UnmarshalEvent([]byte(line)); err != nil {
			return fmt.Errorf("created example event %d is invalid: %w", i+1, err)
		}
	}

	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	fmt.Println("\n✅ Successfully initialized corkboard project!")
	fmt.Println("\nCreated:")
	fmt.Printf("  ✓ %s\n", config.DefaultFileName)
	fmt.Printf("  ✓ %s/example.json\n", BoardsDir)
	fmt.Printf("  ✓ %s/example-events.jsonl\n", BoardsDir)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Replay the example offline:")
	fmt.Printf("       corkboard replay %s/example.json %s/example-events.jsonl\n", BoardsDir, BoardsDir)
	fmt.Printf("  2. Point redis.url in %s at your Redis server\n", config.DefaultFileName)
	fmt.Println("  3. Follow a live board with 'corkboard watch BOARD_ID'")
}
