package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns $HOME/.clif-c-of, or .clif-c-of in the working
// directory when no home directory is known.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return ".clif-c-of"
	}
	return filepath.Join(homeDir, ".clif-c-of")
}

// ExportDir returns the directory for history exports.
func ExportDir(dataDir string) string {
	return filepath.Join(dataDir, "exports")
}

// EnsureDataDir creates the data directory and its exports subdirectory.
func EnsureDataDir(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(ExportDir(dataDir), 0755)
}
