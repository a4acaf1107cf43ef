package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDirName is the name of the per-project data directory.
const DataDirName = ".hopfield"

// DatabaseFile is the SQLite file inside the data directory.
const DatabaseFile = "hopfield.db"

// GlobalDataPath returns the path to the global .hopfield directory.
// On Unix: ~/.hopfield
// On Windows: %USERPROFILE%\.hopfield
func GlobalDataPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DataDirName), nil
}

// LocalDataPath returns the path to the local .hopfield directory
// for the given project root.
func LocalDataPath(root string) string {
	return filepath.Join(root, DataDirName)
}

// DatabasePath returns the SQLite path for the given project root.
func DatabasePath(root string) string {
	return filepath.Join(LocalDataPath(root), DatabaseFile)
}
