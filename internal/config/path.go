package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading tilde and any environment variables in a
// filesystem path from configuration.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}
	return os.ExpandEnv(path)
}
