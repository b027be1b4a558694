// Package config loads the analysis settings and resolves file paths.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/spice/spice.db"

// ExpandPath expands a leading ~ and any $VAR references in path.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// DatabasePath returns the expanded database location, falling back to
// DefaultDatabasePath.
func DatabasePath(configured string) string {
	if strings.TrimSpace(configured) == "" {
		configured = DefaultDatabasePath
	}
	return ExpandPath(configured)
}
