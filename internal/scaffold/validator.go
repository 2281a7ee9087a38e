package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/corkboard/internal/config"
)

// CheckExisting checks if corkboard.yml or the example board already exist in dir
// Returns an error if they do, nil otherwise
func CheckExisting(dir string) error {
	var existingFiles []string

	if _, err := os.Stat(filepath.Join(dir, config.DefaultFileName)); err == nil {
		existingFiles = append(existingFiles, config.DefaultFileName)
	}

	example := filepath.Join(BoardsDir, "example.json")
	if _, err := os.Stat(filepath.Join(dir, example)); err == nil {
		existingFiles = append(existingFiles, example)
	}

	if len(existingFiles) > 0 {
		errMsg := "project already initialized\n\nFound existing"
		if len(existingFiles) == 1 {
			errMsg += fmt.Sprintf(": %s", existingFiles[0])
		} else {
			errMsg += " files:\n"
			for _, file := range existingFiles {
				errMsg += fmt.Sprintf("  - %s\n", file)
			}
		}
		errMsg += "\nUse 'corkboard init --force' to reinitialize (this will overwrite existing configuration)"

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}
