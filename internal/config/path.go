// Package config loads koperasi settings: viper tunables, seed files and paths.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// Default locations, expanded with ExpandPath.
const (
	DefaultDatabasePath = "$HOME/.local/share/koperasi/koperasi.db"
	DefaultBoltPath     = "$HOME/.local/share/koperasi/ledger.bolt"
	DefaultConfigDir    = "$HOME/.config/koperasi"
)

// ResolvePath expands path, falling back to def when path is blank.
func ResolvePath(path, def string) string {
	if strings.TrimSpace(path) == "" {
		path = def
	}
	return ExpandPath(path)
}
